// Package channel loads the directory that maps channel numbers used inside
// shard files to channel identifiers and display names.
//
// The directory resource is a tab-separated text file, one channel per line:
//
//	<number>\t<channelID>\t<channelName>
//
// It is loaded once, before any search result is rendered, and is read-only
// afterwards.
package channel

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/hupe1980/gramsearch/blobstore"
)

// DefaultPath is the resource path of the directory.
const DefaultPath = "index/channel"

var (
	// ErrDirectoryLoad is matched by every *DirectoryLoadError.
	ErrDirectoryLoad = errors.New("channel directory load failed")

	// ErrUnknownChannel is matched by every *UnknownChannelError.
	ErrUnknownChannel = errors.New("unknown channel")
)

// DirectoryLoadError wraps the transport failure that prevented loading.
type DirectoryLoadError struct {
	Path string
	Err  error
}

func (e *DirectoryLoadError) Error() string {
	return fmt.Sprintf("load channel directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryLoadError) Unwrap() error { return e.Err }

func (e *DirectoryLoadError) Is(target error) bool { return target == ErrDirectoryLoad }

// UnknownChannelError is returned by Lookup for numbers not in the directory.
type UnknownChannelError struct {
	Number uint32
}

func (e *UnknownChannelError) Error() string {
	return fmt.Sprintf("unknown channel number %d", e.Number)
}

func (e *UnknownChannelError) Is(target error) bool { return target == ErrUnknownChannel }

// Entry describes one channel.
type Entry struct {
	Number uint32
	ID     string
	Name   string
}

// Directory maps channel numbers to entries.
type Directory struct {
	entries map[uint32]Entry
}

// LoadOptions configures Load.
type LoadOptions struct {
	// Path of the directory resource. Default: DefaultPath.
	Path string
	// Logger receives a debug record for every skipped line.
	Logger *slog.Logger
}

// Load fetches and parses the directory. Any transport failure, including a
// missing resource, is returned as a *DirectoryLoadError.
func Load(ctx context.Context, store blobstore.BlobStore, optFns ...func(*LoadOptions)) (*Directory, error) {
	opts := LoadOptions{Path: DefaultPath}
	for _, fn := range optFns {
		fn(&opts)
	}

	data, err := blobstore.ReadAll(ctx, store, opts.Path)
	if err != nil {
		return nil, &DirectoryLoadError{Path: opts.Path, Err: err}
	}

	d, err := Parse(bytes.NewReader(data), opts.Logger)
	if err != nil {
		return nil, &DirectoryLoadError{Path: opts.Path, Err: err}
	}
	return d, nil
}

// Parse reads directory lines from r. Lines with fewer than three fields or a
// non-numeric channel number are skipped; fields after the third are ignored.
func Parse(r io.Reader, logger *slog.Logger) (*Directory, error) {
	d := &Directory{entries: make(map[uint32]Entry)}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSuffix(sc.Text(), "\r")
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 3 {
			debugSkip(logger, line, "missing fields")
			continue
		}
		n, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			debugSkip(logger, line, "invalid channel number")
			continue
		}
		d.entries[uint32(n)] = Entry{Number: uint32(n), ID: fields[1], Name: fields[2]}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

func debugSkip(logger *slog.Logger, line int, reason string) {
	if logger != nil {
		logger.Debug("skipping channel directory line", "line", line, "reason", reason)
	}
}

// New builds a directory from entries. Later entries win on duplicate numbers.
func New(entries ...Entry) *Directory {
	d := &Directory{entries: make(map[uint32]Entry, len(entries))}
	for _, e := range entries {
		d.entries[e.Number] = e
	}
	return d
}

// Lookup returns the entry for number.
func (d *Directory) Lookup(number uint32) (Entry, error) {
	e, ok := d.entries[number]
	if !ok {
		return Entry{}, &UnknownChannelError{Number: number}
	}
	return e, nil
}

// Len returns the number of channels.
func (d *Directory) Len() int { return len(d.entries) }

// Entries returns all entries sorted by number.
func (d *Directory) Entries() []Entry {
	out := make([]Entry, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Encode writes entries in directory format.
func Encode(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if strings.ContainsAny(e.ID, "\t\n") || strings.ContainsAny(e.Name, "\t\n") {
			return fmt.Errorf("channel %d: id and name must not contain tabs or newlines", e.Number)
		}
		if _, err := fmt.Fprintf(bw, "%d\t%s\t%s\n", e.Number, e.ID, e.Name); err != nil {
			return err
		}
	}
	return bw.Flush()
}
