package export

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tbourn/go-chat-export/internal/discord"
	"github.com/tbourn/go-chat-export/internal/writers"
)

// countingWriter tracks bytes flowing into the current partition so byte
// limits observe exactly what lands in the file.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// PartitionedSink owns the writer lifecycle: it opens partition files,
// cuts a new partition when the limit trips, and guarantees that even an
// empty export leaves behind one file with preamble and postamble.
type PartitionedSink struct {
	resolver writers.Resolver
	format   writers.Format
	basePath string
	limit    PartitionLimit

	partition int
	file      *os.File
	counter   *countingWriter
	writer    writers.MessageWriter

	messagesInPartition int
	messagesTotal       int
}

// NewPartitionedSink builds a sink writing basePath (and its " [part N]"
// siblings) in the given format. Opening is lazy so a failed export does
// not leave stray files before the first write.
func NewPartitionedSink(resolver writers.Resolver, format writers.Format, basePath string, limit PartitionLimit) *PartitionedSink {
	if limit == nil {
		limit = NullLimit
	}
	return &PartitionedSink{
		resolver: resolver,
		format:   format,
		basePath: basePath,
		limit:    limit,
	}
}

// partitionPath injects " [part N]" before the extension; the first
// partition keeps the base path untouched.
func (s *PartitionedSink) partitionPath(index int) string {
	if index == 0 {
		return s.basePath
	}
	ext := filepath.Ext(s.basePath)
	stem := strings.TrimSuffix(s.basePath, ext)
	return stem + " [part " + strconv.Itoa(index+1) + "]" + ext
}

func (s *PartitionedSink) openPartition(ctx context.Context) error {
	path := s.partitionPath(s.partition)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	s.file = f
	s.counter = &countingWriter{w: f}
	s.writer = writers.New(s.format, s.counter, s.resolver)
	s.messagesInPartition = 0
	return s.writer.Preamble(ctx)
}

func (s *PartitionedSink) closePartition(ctx context.Context) error {
	if s.writer == nil {
		return nil
	}
	err := s.writer.Postamble(ctx)
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	s.writer = nil
	s.file = nil
	s.counter = nil
	return err
}

// WriteMessage appends one message, rolling over to the next partition
// first when the limit is reached. A partition may exceed the limit by at
// most the one message being written.
func (s *PartitionedSink) WriteMessage(ctx context.Context, m discord.Message) error {
	if s.writer == nil {
		if err := s.openPartition(ctx); err != nil {
			return err
		}
	} else if s.limit.IsReached(s.messagesInPartition, s.counter.n) {
		if err := s.closePartition(ctx); err != nil {
			return err
		}
		s.partition++
		if err := s.openPartition(ctx); err != nil {
			return err
		}
	}
	if err := s.writer.WriteMessage(ctx, m); err != nil {
		return err
	}
	s.messagesInPartition++
	s.messagesTotal++
	return nil
}

// MessagesWritten reports the total across all partitions.
func (s *PartitionedSink) MessagesWritten() int { return s.messagesTotal }

// Close finalizes the export. When nothing was written it still produces
// the base file with preamble and postamble only.
func (s *PartitionedSink) Close(ctx context.Context) error {
	if s.writer == nil {
		if err := s.openPartition(ctx); err != nil {
			return err
		}
	}
	return s.closePartition(ctx)
}
