package autopilot

import (
	"errors"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/deepredk/oh-my-claudecode/internal/transcript"
)

// Detector scans session transcripts for completion markers.
type Detector struct {
	locator *transcript.Locator
	logger  *zap.Logger
}

// NewDetector creates a detector over the given transcript locator.
func NewDetector(locator *transcript.Locator, logger *zap.Logger) (*Detector, error) {
	if locator == nil {
		return nil, errors.New("transcript locator is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{locator: locator, logger: logger}, nil
}

// Detect reports whether any readable transcript candidate for the session
// contains the marker. Unreadable candidates are skipped, never fatal: a
// moved or truncated transcript must not break enforcement.
func (d *Detector) Detect(sessionID, workDir, explicitPath string, sig Signal) bool {
	for _, path := range d.locator.Candidates(sessionID, workDir, explicitPath) {
		text, err := transcript.ReadText(path)
		if err != nil {
			if !os.IsNotExist(err) {
				d.logger.Debug("transcript candidate unreadable",
					zap.String("path", path),
					zap.Error(err))
			}
			continue
		}
		if containsSignal(text, sig) {
			d.logger.Debug("signal detected",
				zap.String("signal", string(sig)),
				zap.String("path", path))
			return true
		}
	}
	return false
}

// DetectAny returns the first marker from DetectionOrder present in any
// transcript candidate.
func (d *Detector) DetectAny(sessionID, workDir, explicitPath string) (Signal, bool) {
	var texts []string
	for _, path := range d.locator.Candidates(sessionID, workDir, explicitPath) {
		text, err := transcript.ReadText(path)
		if err != nil {
			continue
		}
		texts = append(texts, text)
	}
	for _, sig := range DetectionOrder {
		for _, text := range texts {
			if containsSignal(text, sig) {
				return sig, true
			}
		}
	}
	return "", false
}

func containsSignal(text string, sig Signal) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(string(sig)))
}
