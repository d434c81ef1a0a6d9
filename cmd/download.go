package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gamepowerx/kekupload-go/internal/download"
	"github.com/gamepowerx/kekupload-go/utils"
	"github.com/spf13/cobra"
)

func newDownloadCmd() *cobra.Command {
	var output string
	var pullSize int64
	cmd := &cobra.Command{
		Use:   "download [ARTIFACT_ID]",
		Short: "Download a finalized artifact in sequential chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			id := args[0]
			if output == "" {
				output = id
			}
			dl := download.New(newAPIClient())
			if err := dl.Begin(ctx, id); err != nil {
				return err
			}
			outFile, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("error creating output file: %v", err)
			}
			defer outFile.Close()

			total := dl.Length()
			for dl.Remaining() > 0 {
				chunk, err := dl.Pull(ctx, pullSize)
				if err != nil {
					return err
				}
				if _, err := outFile.Write(chunk); err != nil {
					return fmt.Errorf("error writing to output file: %v", err)
				}
				done := total - dl.Remaining()
				utils.PrintProgressLine(output, float64(done)/float64(total), done, total)
			}
			fmt.Println()
			utils.PrintSuccess(fmt.Sprintf("%s Downloaded %s (%s)", utils.StyleSymbols["pass"], output, utils.FormatBytes(uint64(total))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (defaults to the artifact id)")
	cmd.Flags().Int64Var(&pullSize, "pull-size", 2*1024*1024, "Bytes requested per chunk pull")
	return cmd
}
