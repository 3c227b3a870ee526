package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cuemby/protobase/pkg/atom"
	"github.com/cuemby/protobase/pkg/sharedstorage"
	"github.com/cuemby/protobase/pkg/storage"
)

var walCmd = &cobra.Command{
	Use:   "wal [wal-id]",
	Short: "List WALs, or dump the records in one",
	Long: `With no argument, wal lists every WAL file in the space and its size.
With a WAL id (the dashless hex UUID that names the file on disk), wal
dumps every record in that WAL in order: its offset, wire format, and a
short summary of the decoded payload.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return listWALs()
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid wal id %q: %w", args[0], err)
		}
		return dumpWAL(id)
	},
}

func listWALs() error {
	files, err := listWALFiles(spaceDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("no WAL files in space")
		return nil
	}
	for _, f := range files {
		fmt.Printf("%s  %10d bytes\n", f.id, f.size)
	}
	return nil
}

func dumpWAL(id uuid.UUID) error {
	bp, err := storage.NewFileBlockProvider(spaceDir, storage.DefaultPageSize)
	if err != nil {
		return err
	}
	defer bp.Close()

	rs, err := bp.Reader(id, 0)
	if err != nil {
		return err
	}
	defer rs.Close()

	var offset uint64
	var index int
	for {
		format, payload, err := sharedstorage.DecodeFrame(rs)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("record %d at offset %d: %w", index, offset, err)
		}
		pos, err := rs.Seek(0, io.SeekCurrent)
		if err != nil {
			return fmt.Errorf("record %d at offset %d: %w", index, offset, err)
		}
		recordLen := uint64(pos) - offset

		summary := describePayload(format, payload)
		fmt.Printf("#%-4d offset=%-10d len=%-8d format=%-8s %s\n", index, offset, recordLen, formatName(format), summary)

		offset += recordLen
		index++
	}
	return nil
}

func formatName(f atom.Format) string {
	switch f {
	case atom.FormatJSON:
		return "json"
	case atom.FormatMsgpack:
		return "msgpack"
	default:
		return fmt.Sprintf("0x%02x", byte(f))
	}
}

// describePayload decodes payload best-effort for display; a decode
// failure is reported inline rather than aborting the whole dump, since
// one bad record shouldn't hide the rest of the WAL.
func describePayload(format atom.Format, payload []byte) string {
	decoded, err := atom.DecodePayload(payload, format)
	if err != nil {
		return fmt.Sprintf("<undecodable: %v>", err)
	}
	className, _ := decoded["className"].(string)
	if className == "" {
		return fmt.Sprintf("<raw blob, %d bytes>", len(payload))
	}
	return fmt.Sprintf("className=%s fields=%d", className, len(decoded))
}
