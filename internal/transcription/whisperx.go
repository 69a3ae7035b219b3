package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"reelscan/internal/editmap"
	"reelscan/internal/language"
	"reelscan/internal/logging"
)

// WhisperX invocation constants.
const (
	DefaultWhisperXModel = "large-v3"
	CUDAIndexURL         = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL         = "https://pypi.org/simple"
	BatchSize            = "4"
	ChunkSize            = "15"
	VADOnset             = "0.08"
	VADOffset            = "0.07"
	BeamSize             = "10"
	CPUDevice            = "cpu"
	CUDADevice           = "cuda"
	CPUComputeType       = "float32"
	UVXCommand           = "uvx"
)

// WhisperXConfig captures runtime settings for local WhisperX runs.
type WhisperXConfig struct {
	// Model is the WhisperX model to use (e.g., "large-v3-turbo").
	Model string
	// CUDAEnabled enables GPU acceleration.
	CUDAEnabled bool
	// HFToken is the Hugging Face token pyannote diarization needs.
	HFToken string
}

// RunFunc executes a command to completion.
type RunFunc func(ctx context.Context, name string, args ...string) error

// WhisperXService runs WhisperX in the background behind the asynchronous
// Service contract. Output lands next to the audio file, inside the job's
// scratch directory.
type WhisperXService struct {
	cfg    WhisperXConfig
	run    RunFunc
	logger *slog.Logger

	mu   sync.Mutex
	jobs map[string]*localJob
}

type localJob struct {
	cancel   context.CancelFunc
	done     chan struct{}
	state    State
	err      error
	jsonPath string
}

// NewWhisperXService returns a local WhisperX runner.
func NewWhisperXService(cfg WhisperXConfig, logger *slog.Logger) *WhisperXService {
	if logger == nil {
		logger = logging.NewNop()
	}
	svc := &WhisperXService{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "whisperx"),
		jobs:   make(map[string]*localJob),
	}
	svc.run = svc.execRun
	return svc
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *WhisperXService) WithCommandRunner(runner RunFunc) {
	if runner != nil {
		s.run = runner
	}
}

// Model returns the configured model name for logging.
func (s *WhisperXService) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultWhisperXModel
}

// Start implements Service. The run outlives ctx's cancellation but keeps
// its values; use Cancel to stop it.
func (s *WhisperXService) Start(ctx context.Context, req JobRequest) error {
	if strings.TrimSpace(req.AudioPath) == "" {
		return fmt.Errorf("whisperx start: audio path required")
	}
	outputDir := filepath.Join(filepath.Dir(req.AudioPath), "whisperx")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("whisperx start: ensure output dir: %w", err)
	}

	s.mu.Lock()
	if _, exists := s.jobs[req.Name]; exists {
		s.mu.Unlock()
		return fmt.Errorf("whisperx start: job %s already running", req.Name)
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	job := &localJob{
		cancel:   cancel,
		done:     make(chan struct{}),
		state:    StateInProgress,
		jsonPath: whisperXJSONPath(outputDir, req.AudioPath),
	}
	s.jobs[req.Name] = job
	s.mu.Unlock()

	args := s.buildArgs(req, outputDir)
	go func() {
		defer close(job.done)
		err := s.run(runCtx, UVXCommand, args...)
		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			job.state = StateFailed
			job.err = err
			return
		}
		job.state = StateCompleted
	}()
	return nil
}

// Status implements Service. A failed job is forgotten once its failure has
// been reported; completed jobs stay until Result collects them.
func (s *WhisperXService) Status(_ context.Context, name string) (JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[name]
	if !ok {
		return JobStatus{}, fmt.Errorf("whisperx status: unknown job %s", name)
	}
	status := JobStatus{State: job.state}
	if job.err != nil {
		status.FailureReason = job.err.Error()
	}
	if job.state == StateFailed {
		delete(s.jobs, name)
		job.cancel()
	}
	return status, nil
}

// Result implements Service and forgets the job.
func (s *WhisperXService) Result(_ context.Context, name string) ([]editmap.Token, error) {
	s.mu.Lock()
	job, ok := s.jobs[name]
	if ok && job.state.Terminal() {
		delete(s.jobs, name)
	}
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("whisperx result: unknown job %s", name)
	}
	if job.state != StateCompleted {
		return nil, fmt.Errorf("whisperx result: job %s is %s", name, job.state)
	}
	return LoadWhisperXTokens(job.jsonPath)
}

// Cancel implements Canceler and waits for the process to exit.
func (s *WhisperXService) Cancel(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	delete(s.jobs, name)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	job.cancel()
	select {
	case <-job.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *WhisperXService) execRun(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, lastLines(string(output), 5))
	}
	return nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *WhisperXService) buildArgs(req JobRequest, outputDir string) []string {
	args := make([]string, 0, 40)
	if s.cfg.CUDAEnabled {
		args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		req.AudioPath,
		"--model", s.Model(),
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--chunk_size", ChunkSize,
		"--vad_onset", VADOnset,
		"--vad_offset", VADOffset,
		"--beam_size", BeamSize,
	)

	if lang := language.ToISO2(req.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	if req.Diarization {
		if s.cfg.HFToken == "" {
			logging.WarnWithContext(s.logger, "whisperx diarization skipped", "diarization_unavailable",
				logging.String("transcription_job", req.Name),
				logging.Hint("set transcription.hf_token or HF_TOKEN to enable pyannote diarization"),
				logging.Impact("all speech is attributed to a single speaker"),
			)
		} else {
			args = append(args, "--diarize", "--hf_token", s.cfg.HFToken)
			if req.MaxSpeakers > 0 {
				args = append(args, "--max_speakers", strconv.Itoa(req.MaxSpeakers))
			}
		}
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}
	return args
}

func whisperXJSONPath(outputDir, source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(outputDir, base+".json")
}

func lastLines(output string, n int) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

// whisperXWord is a single word with timing from WhisperX output. Timings
// are absent for tokens the aligner could not place, such as numerals.
type whisperXWord struct {
	Word    string   `json:"word"`
	Start   *float64 `json:"start"`
	End     *float64 `json:"end"`
	Score   float64  `json:"score"`
	Speaker string   `json:"speaker"`
}

type whisperXSegment struct {
	Start   float64        `json:"start"`
	End     float64        `json:"end"`
	Speaker string         `json:"speaker"`
	Words   []whisperXWord `json:"words"`
}

type whisperXPayload struct {
	Segments []whisperXSegment `json:"segments"`
}

// LoadWhisperXTokens reads a WhisperX JSON file.
func LoadWhisperXTokens(jsonPath string) ([]editmap.Token, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	return ParseWhisperX(data)
}

// ParseWhisperX converts WhisperX segments into tokens. Trailing sentence-final
// punctuation is split into its own token so punctuation-driven consumers see
// the same stream the remote service produces.
func ParseWhisperX(data []byte) ([]editmap.Token, error) {
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}

	var tokens []editmap.Token
	last := 0.0
	for _, seg := range payload.Segments {
		if seg.Start > last {
			last = seg.Start
		}
		for _, w := range seg.Words {
			text := strings.TrimSpace(w.Word)
			if text == "" {
				continue
			}
			start, end := last, last
			if w.Start != nil {
				start = max(*w.Start, last)
			}
			if w.End != nil {
				end = max(*w.End, start)
			} else {
				end = start
			}
			last = end

			speaker := w.Speaker
			if speaker == "" {
				speaker = seg.Speaker
			}
			word, punct := splitSentenceFinal(text)
			if word != "" {
				tokens = append(tokens, editmap.Token{Word: word, StartTime: start, EndTime: end, Confidence: w.Score, Speaker: speaker})
			}
			if punct != "" {
				tokens = append(tokens, editmap.Token{Word: punct, StartTime: end, EndTime: end, Confidence: w.Score, Speaker: speaker})
			}
		}
	}
	return tokens, nil
}

// splitSentenceFinal splits "word." into ("word", "."). Ellipses and bare
// punctuation stay whole.
func splitSentenceFinal(text string) (string, string) {
	if len(text) < 2 {
		return text, ""
	}
	last := text[len(text)-1]
	if last != '.' && last != '!' && last != '?' {
		return text, ""
	}
	body := text[:len(text)-1]
	if strings.HasSuffix(body, ".") {
		return text, ""
	}
	return body, string(last)
}
