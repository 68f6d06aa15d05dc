package stt

import (
	"fmt"
	"strings"
)

// WhisperModel identifies one ggml model size/variant.
type WhisperModel string

const (
	ModelTiny     WhisperModel = "tiny"
	ModelTinyEn   WhisperModel = "tiny.en"
	ModelBase     WhisperModel = "base"
	ModelBaseEn   WhisperModel = "base.en"
	ModelSmall    WhisperModel = "small"
	ModelSmallEn  WhisperModel = "small.en"
	ModelMedium   WhisperModel = "medium"
	ModelMediumEn WhisperModel = "medium.en"
	ModelLarge    WhisperModel = "large"
	ModelLargeV2  WhisperModel = "large-v2"
	ModelLargeV3  WhisperModel = "large-v3"
)

type modelMeta struct {
	filename string
	sizeMB   uint64
	englishOnly bool
	description string
}

var modelTable = map[WhisperModel]modelMeta{
	ModelTiny:     {"ggml-tiny.bin", 39, false, "Tiny multilingual model (39 MB)"},
	ModelTinyEn:   {"ggml-tiny.en.bin", 39, true, "Tiny English-only model (39 MB)"},
	ModelBase:     {"ggml-base.bin", 142, false, "Base multilingual model (142 MB)"},
	ModelBaseEn:   {"ggml-base.en.bin", 142, true, "Base English-only model (142 MB)"},
	ModelSmall:    {"ggml-small.bin", 466, false, "Small multilingual model (466 MB)"},
	ModelSmallEn:  {"ggml-small.en.bin", 466, true, "Small English-only model (466 MB)"},
	ModelMedium:   {"ggml-medium.bin", 1420, false, "Medium multilingual model (1.4 GB)"},
	ModelMediumEn: {"ggml-medium.en.bin", 1420, true, "Medium English-only model (1.4 GB)"},
	ModelLarge:    {"ggml-large.bin", 2880, false, "Large multilingual model (2.9 GB)"},
	ModelLargeV2:  {"ggml-large-v2.bin", 2880, false, "Large v2 multilingual model (2.9 GB)"},
	ModelLargeV3:  {"ggml-large-v3.bin", 2880, false, "Large v3 multilingual model (2.9 GB)"},
}

const modelBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

func (m WhisperModel) Filename() string { return modelTable[m].filename }

func (m WhisperModel) DownloadURL() string { return modelBaseURL + modelTable[m].filename }

func (m WhisperModel) SizeMB() uint64 { return modelTable[m].sizeMB }

func (m WhisperModel) Description() string { return modelTable[m].description }

func (m WhisperModel) IsEnglishOnly() bool { return modelTable[m].englishOnly }

func (m WhisperModel) String() string { return string(m) }

// ParseWhisperModel parses a size string (e.g. "base.en", "large-v3") into
// a WhisperModel, accepting both "." and "-" separators.
func ParseWhisperModel(s string) (WhisperModel, error) {
	normalized := strings.ReplaceAll(strings.ToLower(s), "_", "-")
	candidate := WhisperModel(normalized)
	if _, ok := modelTable[candidate]; ok {
		return candidate, nil
	}
	// Accept "base-en" as an alias for "base.en".
	dotted := WhisperModel(strings.Replace(normalized, "-en", ".en", 1))
	if _, ok := modelTable[dotted]; ok {
		return dotted, nil
	}
	return "", fmt.Errorf("unknown whisper model: %s", s)
}

// RecommendedForSpeed, RecommendedForAccuracy, and RecommendedForSize
// return the reference implementation's fixed defaults for each use case.
func RecommendedForSpeed() WhisperModel    { return ModelBaseEn }
func RecommendedForAccuracy() WhisperModel { return ModelLargeV3 }
func RecommendedForSize() WhisperModel     { return ModelTinyEn }

// descendingBySize is the preference order get_best_available_model walks:
// largest (most accurate) first.
var descendingBySize = []WhisperModel{
	ModelLargeV3, ModelLargeV2, ModelLarge,
	ModelMedium, ModelMediumEn,
	ModelSmall, ModelSmallEn,
	ModelBase, ModelBaseEn,
	ModelTiny, ModelTinyEn,
}
