package git

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/steveyegge/sizelint/internal/diag"
)

// maxLineSize bounds a single output line from a batch command.
const maxLineSize = 1024 * 1024

// runBatch starts a long-lived git process, streams input to its stdin one
// item per line and hands every stdout line to handle.
//
// Input is written from a separate goroutine while stdout is consumed here.
// Writing everything first would deadlock once both pipe buffers fill.
// After handle fails, remaining output is drained so the process can exit.
func (r *Repo) runBatch(ctx context.Context, args []string, input []string, handle func(line string) error) error {
	cmd := r.command(ctx, r.root, args...)
	name := subcommand(args)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return diag.Wrap(err, diag.CodeGitSpawnFailed, "failed to open stdin for git %s", name)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return diag.Wrap(err, diag.CodeGitSpawnFailed, "failed to open stdout for git %s", name)
	}

	r.logger.Debug("starting git batch", "args", args, "inputs", len(input))
	if err := cmd.Start(); err != nil {
		return diag.Wrap(err, diag.CodeGitSpawnFailed, "failed to start git %s", name)
	}

	writeDone := make(chan error, 1)
	go func() {
		writeDone <- writeLines(stdin, input)
	}()

	var handleErr error
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		if handleErr != nil {
			continue
		}
		handleErr = handle(scanner.Text())
	}
	scanErr := scanner.Err()
	if scanErr != nil {
		_, _ = io.Copy(io.Discard, stdout)
	}

	waitErr := cmd.Wait()
	writeErr := <-writeDone

	switch {
	case waitErr != nil:
		return commandError(args, waitErr, &stderr)
	case scanErr != nil:
		return diag.Wrap(scanErr, diag.CodeGitOutputMalformed, "reading git %s output", name)
	case handleErr != nil:
		return diag.Wrap(handleErr, diag.CodeGitOutputMalformed, "parsing git %s output", name)
	case writeErr != nil:
		return diag.Wrap(writeErr, diag.CodeGitCommandFailed, "writing to git %s", name)
	}
	return nil
}

func writeLines(w io.WriteCloser, lines []string) error {
	bw := bufio.NewWriter(w)
	var err error
	for _, line := range lines {
		if _, err = bw.WriteString(line); err != nil {
			break
		}
		if err = bw.WriteByte('\n'); err != nil {
			break
		}
	}
	if err == nil {
		err = bw.Flush()
	}
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return err
}
