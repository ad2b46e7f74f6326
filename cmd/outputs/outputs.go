package outputs

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/JSH-Team/FrameHunter/internal/config"
	"github.com/JSH-Team/FrameHunter/internal/storage"
	"github.com/JSH-Team/FrameHunter/internal/utils/console"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var prefix string

func listOutputs(w io.Writer, dir, prefix string) error {
	outputs, err := storage.ListOutputs(dir, prefix)
	if err != nil {
		return err
	}

	if len(outputs) == 0 {
		fmt.Fprintf(w, "No batch outputs found in %s\n", dir)
		return nil
	}

	rows := make([][]string, 0, len(outputs))
	for _, out := range outputs {
		status := "complete"
		if out.Staging {
			status = "interrupted"
		}
		rows = append(rows, []string{
			out.Name,
			humanize.Time(out.Created),
			strconv.Itoa(out.Items),
			humanize.Comma(int64(out.Frames)),
			humanize.Bytes(uint64(out.Bytes)),
			status,
		})
	}

	fmt.Fprintln(w, console.RenderTable(
		[]string{"Batch", "Created", "Videos", "Frames", "Size", "Status"},
		rows,
		2, 3, 4,
	))
	return nil
}

// OutputsCmd lists the batch directories written by previous runs
var OutputsCmd = &cobra.Command{
	Use:   "outputs [directory]",
	Short: "List frame batches written to a directory",
	Long: `List the batch directories (<prefix>_<timestamp>) found in a directory, newest
first, with their video count, frame count and size on disk. Batches that were
interrupted before cleanup are marked as such.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		if !cmd.Flags().Changed("prefix") {
			prefix = config.GlobalConfig.OutputPrefix
		}
		return listOutputs(os.Stdout, dir, prefix)
	},
}

func init() {
	OutputsCmd.Flags().StringVar(&prefix, "prefix", "", "Batch directory name prefix (default from config)")
}
