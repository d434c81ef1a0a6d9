package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gamepowerx/kekupload-go/internal/queue"
	"github.com/gamepowerx/kekupload-go/internal/upload"
	"github.com/gamepowerx/kekupload-go/utils"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type batchEntry struct {
	File string `yaml:"file,omitempty"`
	S3   string `yaml:"s3,omitempty"`
	Ext  string `yaml:"ext,omitempty"`
	Name string `yaml:"name,omitempty"`
}

type batchFile struct {
	Uploads []batchEntry `yaml:"uploads"`
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE]",
		Short: "Upload multiple files from a YAML list through the job queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("error reading YAML file: %v", err)
			}
			var batch batchFile
			if err := yaml.Unmarshal(data, &batch); err != nil {
				return fmt.Errorf("error parsing YAML file: %v", err)
			}
			if len(batch.Uploads) == 0 {
				return fmt.Errorf("no uploads found in the batch file")
			}
			return runBatch(cmd.Context(), batch.Uploads)
		},
	}
	return cmd
}

func runBatch(ctx context.Context, entries []batchEntry) error {
	transfer := upload.NewTransfer(newAPIClient(), transferConfig())
	q := queue.New(transfer)
	defer q.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	failures := 0
	for _, entry := range entries {
		target := entry.File
		if target == "" {
			target = entry.S3
		}
		if target == "" {
			utils.PrintWarning("Skipping entry with no file or s3 key")
			continue
		}
		src, display, err := openSource(ctx, target)
		if err != nil {
			utils.PrintError(fmt.Sprintf("%s %s: %v", utils.StyleSymbols["fail"], target, err))
			mu.Lock()
			failures++
			mu.Unlock()
			continue
		}
		ext := entry.Ext
		if ext == "" {
			ext = strings.TrimPrefix(filepath.Ext(display), ".")
		}
		if ext == "" {
			ext = "bin"
		}
		wg.Add(1)
		name := display
		q.AddJob(queue.Job{
			Source: src,
			Ext:    ext,
			Name:   entry.Name,
			OnComplete: func(artifact upload.Artifact) {
				utils.PrintSuccess(fmt.Sprintf("%s %s %s %s", utils.StyleSymbols["pass"], name, utils.StyleSymbols["arrow"], artifact.ID))
			},
			OnError: func(err error) {
				utils.PrintError(fmt.Sprintf("%s %s: %v", utils.StyleSymbols["fail"], name, err))
				mu.Lock()
				failures++
				mu.Unlock()
			},
			OnFinally: func() {
				if closer, ok := src.(interface{ Close() error }); ok {
					closer.Close()
				}
				wg.Done()
			},
		})
	}
	wg.Wait()
	if failures > 0 {
		return fmt.Errorf("encountered %d failed upload(s)", failures)
	}
	return nil
}
