package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gamepowerx/kekupload-go/internal/source"
	"github.com/gamepowerx/kekupload-go/internal/upload"
	"github.com/gamepowerx/kekupload-go/utils"
	"github.com/spf13/cobra"
)

func newUploadCmd() *cobra.Command {
	var ext, name string
	cmd := &cobra.Command{
		Use:   "upload [FILE | s3://BUCKET/KEY]",
		Short: "Upload a file or S3 object as a chunked stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			target := args[0]
			src, display, err := openSource(ctx, target)
			if err != nil {
				return err
			}
			if closer, ok := src.(interface{ Close() error }); ok {
				defer closer.Close()
			}
			if ext == "" {
				ext = strings.TrimPrefix(filepath.Ext(display), ".")
			}
			if ext == "" {
				ext = "bin"
			}

			transfer := upload.NewTransfer(newAPIClient(), transferConfig())
			if err := transfer.Begin(ctx, ext, name); err != nil {
				return err
			}
			total := src.Size()
			err = transfer.UploadFile(ctx, src, func(fraction float64) {
				utils.PrintProgressLine(display, fraction, int64(fraction*float64(total)), total)
			})
			fmt.Println()
			if err != nil {
				utils.PrintError("Upload aborted")
				return err
			}
			artifact, err := transfer.Finish(ctx)
			if err != nil {
				return err
			}
			utils.PrintSuccess(fmt.Sprintf("%s Uploaded %s (%s)", utils.StyleSymbols["pass"], display, utils.FormatBytes(uint64(total))))
			utils.PrintDetail(fmt.Sprintf("  id:   %s", artifact.ID))
			utils.PrintDetail(fmt.Sprintf("  hash: %s", artifact.Hash))
			return nil
		},
	}
	cmd.Flags().StringVarP(&ext, "ext", "e", "", "File extension reported to the server (inferred if empty)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Optional display name for the stream")
	return cmd
}

func openSource(ctx context.Context, target string) (source.Source, string, error) {
	if strings.HasPrefix(target, "s3://") {
		src, err := source.OpenS3(ctx, target)
		if err != nil {
			return nil, "", err
		}
		return src, filepath.Base(src.Key()), nil
	}
	src, err := source.OpenFile(target)
	if err != nil {
		return nil, "", err
	}
	return src, src.Name(), nil
}
