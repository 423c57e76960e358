package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"pose-feedback/internal/codec"
	"pose-feedback/internal/engine"
	"pose-feedback/internal/models"
	"pose-feedback/internal/services"
)

// maxLineSize bounds one JSON-Lines record
const maxLineSize = 4 * 1024 * 1024

type replayOptions struct {
	InputPath  string
	OutputPath string
	SessionID  string
	Threshold  float64
	WindowSize int
	NoProgress bool
}

var replayOpts replayOptions

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Run recorded landmark frames (JSON Lines) through the feedback engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		engineCfg := cfg.Engine()
		if cmd.Flags().Changed("threshold") {
			engineCfg.Threshold = replayOpts.Threshold
		}
		if cmd.Flags().Changed("window") {
			engineCfg.WindowSize = replayOpts.WindowSize
		}
		if err := engineCfg.Validate(); err != nil {
			return err
		}
		return runReplay(cmd.Context(), replayOpts, engineCfg)
	},
}

func init() {
	replayCmd.Flags().StringVarP(&replayOpts.InputPath, "input", "i", "", "Path to a JSON Lines file of detections")
	replayCmd.Flags().StringVarP(&replayOpts.OutputPath, "output", "o", "", "Write feedback events here instead of stdout")
	replayCmd.Flags().StringVarP(&replayOpts.SessionID, "session", "s", "", "Session id for frames without one (default: random UUID)")
	replayCmd.Flags().Float64VarP(&replayOpts.Threshold, "threshold", "t", engine.DefaultThreshold, "Guard/span ratio threshold (overrides ENGINE_THRESHOLD)")
	replayCmd.Flags().IntVarP(&replayOpts.WindowSize, "window", "w", engine.DefaultConfig().WindowSize, "Smoothing window size (overrides ENGINE_WINDOW_SIZE)")
	replayCmd.Flags().BoolVar(&replayOpts.NoProgress, "no-progress", false, "Disable the progress bar")

	replayCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(ctx context.Context, opts replayOptions, engineCfg engine.Config) error {
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}

	total, err := countLines(opts.InputPath)
	if err != nil {
		return err
	}

	in, err := os.Open(opts.InputPath)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	out := io.Writer(os.Stdout)
	if opts.OutputPath != "" {
		f, err := os.Create(opts.OutputPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	var bar *progressbar.ProgressBar
	if !opts.NoProgress {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("replaying frames"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)
	}

	r := newReplayer(engineCfg, opts.SessionID)
	err = r.Run(ctx, in, out, func() {
		if bar != nil {
			_ = bar.Add(1)
		}
	})
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}

	for _, sum := range r.Summaries() {
		fmt.Fprintf(os.Stderr, "session %s: %d frames, %d processed (%d correct, %d incorrect), %d skipped\n",
			sum.SessionID, sum.Received, sum.Processed, sum.Correct, sum.Incorrect, sum.Skipped)
	}
	return err
}

// replayer runs detections through one engine per session, synchronously
// and without dropping frames
type replayer struct {
	cfg            engine.Config
	defaultSession string

	engines   map[string]*engine.Engine
	summaries map[string]*models.SessionSummary
}

func newReplayer(cfg engine.Config, defaultSession string) *replayer {
	return &replayer{
		cfg:            cfg,
		defaultSession: defaultSession,
		engines:        make(map[string]*engine.Engine),
		summaries:      make(map[string]*models.SessionSummary),
	}
}

// Run reads JSON Lines detections from r and writes JSON Lines feedback
// events to w. onLine is called once per input line.
func (rp *replayer) Run(ctx context.Context, r io.Reader, w io.Writer, onLine func()) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++
		if onLine != nil {
			onLine()
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		det, err := codec.DecodeDetection(line)
		if err != nil {
			slog.Warn("replay: skipping undecodable line", "line", lineNo, "error", err)
			continue
		}
		if det.SessionID == "" {
			det.SessionID = rp.defaultSession
		}

		ev, ok := rp.process(det)
		if !ok {
			continue
		}
		data, err := json.Marshal(ev)
		if err != nil {
			slog.Warn("replay: skipping unencodable feedback event",
				"session_id", ev.SessionID, "seq", ev.Seq, "line", lineNo, "error", err)
			continue
		}
		if _, err := bw.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write feedback event: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input at line %d: %w", lineNo+1, err)
	}

	now := time.Now()
	for _, sum := range rp.summaries {
		sum.EndedAt = now
		sum.Duration = now.Sub(sum.StartedAt)
		sum.Reason = services.ReasonReplay
	}
	return nil
}

func (rp *replayer) process(det models.DetectionResult) (models.FeedbackEvent, bool) {
	eng, ok := rp.engines[det.SessionID]
	if !ok {
		eng = engine.New(rp.cfg)
		rp.engines[det.SessionID] = eng
		rp.summaries[det.SessionID] = &models.SessionSummary{
			SessionID: det.SessionID,
			Sport:     models.DefaultSport,
			StartedAt: time.Now(),
		}
	}
	sum := rp.summaries[det.SessionID]
	sum.Received++

	ev, err := eng.ProcessDetection(det)
	if err != nil {
		sum.Skipped++
		level := slog.LevelDebug
		if errors.Is(err, engine.ErrMalformedFrame) {
			level = slog.LevelWarn
		}
		slog.Log(context.Background(), level, "replay: frame skipped",
			"session_id", det.SessionID, "seq", det.Seq, "error", err)
		return models.FeedbackEvent{}, false
	}

	sum.Processed++
	if ev.IsCorrect() {
		sum.Correct++
	} else {
		sum.Incorrect++
	}
	return ev, true
}

// Summaries returns per-session totals ordered by session id
func (rp *replayer) Summaries() []*models.SessionSummary {
	out := make([]*models.SessionSummary, 0, len(rp.summaries))
	for _, sum := range rp.summaries {
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}

// countLines returns the number of lines in the file, for the progress bar
func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	count := 0
	lastByte := byte('\n')
	buf := make([]byte, 64*1024)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			lastByte = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read input: %w", err)
		}
	}
	if lastByte != '\n' {
		count++
	}
	return count, nil
}
