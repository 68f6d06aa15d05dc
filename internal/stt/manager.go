package stt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/watchloop/observatory/internal/apperrors"
	"github.com/watchloop/observatory/internal/trace"
)

// ModelManager enumerates known model sizes, reports local availability,
// downloads missing models over HTTPS, and chooses a best-available
// default. Models are files under a user-data directory, named by model
// size (ggml-{size}[.en|-v2|-v3].bin) rather than by a hash of their
// content.
type ModelManager struct {
	modelsDir string
}

// NewModelManager creates a manager rooted at dataDir/savant-ai/models,
// creating the directory if necessary. Callers typically pass the
// platform's per-user data directory (such as $XDG_DATA_HOME).
func NewModelManager(dataDir string) (*ModelManager, error) {
	modelsDir := filepath.Join(dataDir, "savant-ai", "models")
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "create models directory")
	}
	return &ModelManager{modelsDir: modelsDir}, nil
}

// ModelsDirectory returns the directory models are stored under.
func (m *ModelManager) ModelsDirectory() string { return m.modelsDir }

// GetModelPath returns the local path a model would live at, whether or
// not it has been downloaded.
func (m *ModelManager) GetModelPath(model WhisperModel) string {
	return filepath.Join(m.modelsDir, model.Filename())
}

// IsModelAvailable reports whether the model file exists locally.
func (m *ModelManager) IsModelAvailable(model WhisperModel) bool {
	info, err := os.Stat(m.GetModelPath(model))
	return err == nil && !info.IsDir()
}

// ListAvailableModels returns every known model size currently present
// on disk.
func (m *ModelManager) ListAvailableModels() []WhisperModel {
	var available []WhisperModel
	for model := range modelTable {
		if m.IsModelAvailable(model) {
			available = append(available, model)
		}
	}
	return available
}

// GetBestAvailableModel returns the most accurate model that is already
// downloaded, preferring larger models, or false if none are available.
func (m *ModelManager) GetBestAvailableModel() (WhisperModel, bool) {
	for _, model := range descendingBySize {
		if m.IsModelAvailable(model) {
			return model, true
		}
	}
	return "", false
}

// DownloadModel fetches a model over HTTPS into the models directory. A
// no-op if the model is already present.
func (m *ModelManager) DownloadModel(ctx context.Context, model WhisperModel) (string, error) {
	path := m.GetModelPath(model)
	if m.IsModelAvailable(model) {
		return path, nil
	}

	trace.Logger(ctx).Info("downloading whisper model", "model", string(model), "size_mb", model.SizeMB())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, model.DownloadURL(), nil)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeModelDownloadFailed, "build model download request")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeModelDownloadFailed, "download whisper model")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.New(apperrors.KindSurfaced, apperrors.CodeModelDownloadFailed,
			fmt.Sprintf("model download failed: HTTP %d", resp.StatusCode))
	}

	tmp := path + ".download"
	out, err := os.Create(tmp)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "create model file")
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return "", apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "write model file")
	}
	if err := out.Close(); err != nil {
		return "", apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "close model file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "finalize model file")
	}

	trace.Logger(ctx).Info("downloaded whisper model", "model", string(model), "path", path)
	return path, nil
}

// EnsureModel returns the local path to model, downloading it first if
// necessary.
func (m *ModelManager) EnsureModel(ctx context.Context, model WhisperModel) (string, error) {
	if m.IsModelAvailable(model) {
		return m.GetModelPath(model), nil
	}
	return m.DownloadModel(ctx, model)
}

// DeleteModel removes a downloaded model file, if present.
func (m *ModelManager) DeleteModel(model WhisperModel) error {
	path := m.GetModelPath(model)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(path)
}
