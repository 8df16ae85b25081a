package extractor

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ArtifactType is the kind of cultural work.
type ArtifactType string

const (
	TypeBook    ArtifactType = "book"
	TypeAlbum   ArtifactType = "album"
	TypeFilm    ArtifactType = "film"
	TypeEssay   ArtifactType = "essay"
	TypeArtwork ArtifactType = "artwork"
	TypePodcast ArtifactType = "podcast"
	TypeArticle ArtifactType = "article"
	TypeOther   ArtifactType = "other"
)

func normalizeArtifactType(s ArtifactType) ArtifactType {
	switch s {
	case TypeBook, TypeAlbum, TypeFilm, TypeEssay, TypeArtwork, TypePodcast, TypeArticle:
		return s
	default:
		return TypeOther
	}
}

// PatternType classifies a detected taste pattern.
type PatternType string

const (
	PatternThematic  PatternType = "thematic"
	PatternStylistic PatternType = "stylistic"
	PatternTemporal  PatternType = "temporal"
	PatternCreator   PatternType = "creator"
	PatternMedium    PatternType = "medium"
	PatternPersonal  PatternType = "personal"
)

func normalizePatternType(s PatternType) PatternType {
	switch s {
	case PatternThematic, PatternStylistic, PatternTemporal, PatternCreator, PatternMedium, PatternPersonal:
		return s
	default:
		return PatternThematic
	}
}

// Year tolerates models that quote the year or send null. Anything that is
// not an integer decodes as zero (unknown).
type Year int

func (y *Year) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		*y = 0
		return nil
	}
	*y = Year(n)
	return nil
}

// maxContextRunes bounds ExtractedArtifact.Context.
const maxContextRunes = 120

// ExtractedArtifact is a cultural work mentioned in a conversation. Not persisted here.
type ExtractedArtifact struct {
	Title      string       `json:"title"`
	Type       ArtifactType `json:"type"`
	Creator    string       `json:"creator,omitempty"`
	Year       Year         `json:"year,omitempty"`
	Medium     string       `json:"medium,omitempty"`
	Context    string       `json:"context"` // the core idea, not a description of the mention
	Confidence float64      `json:"confidence"`
}

func (a ExtractedArtifact) Score() float64 { return a.Confidence }

// Concept is an idea or theme discussed alongside the artifacts.
type Concept struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Confidence  float64 `json:"confidence"`
}

func (c Concept) Score() float64 { return c.Confidence }

// Connection links two extracted artifacts or concepts by title/name.
type Connection struct {
	From         string  `json:"from"`
	To           string  `json:"to"`
	Relationship string  `json:"relationship"`
	Confidence   float64 `json:"confidence"`
}

func (c Connection) Score() float64 { return c.Confidence }

// Extraction is the result of ExtractEntities.
type Extraction struct {
	Artifacts             []ExtractedArtifact `json:"artifacts"`
	Concepts              []Concept           `json:"concepts"`
	UserStatedConnections []Connection        `json:"user_stated_connections"`
	SuggestedConnections  []Connection        `json:"suggested_connections"`
}

// EmptyExtraction has non-nil slices so it encodes as empty JSON arrays.
func EmptyExtraction() *Extraction {
	return &Extraction{
		Artifacts:             []ExtractedArtifact{},
		Concepts:              []Concept{},
		UserStatedConnections: []Connection{},
		SuggestedConnections:  []Connection{},
	}
}

// EntityOptions tunes ExtractEntities.
type EntityOptions struct {
	IncludeSuggestions bool
	MinConfidence      float64
}

// StoredArtifact is a row from the user's artifact store.
type StoredArtifact struct {
	ID      uuid.UUID
	Title   string
	Type    string
	Creator string
	Year    *int
}

// DetectedPattern is an inferred connection across at least two stored artifacts.
type DetectedPattern struct {
	ID             string      `json:"id"`
	Pattern        string      `json:"pattern"`
	Description    string      `json:"description"`
	ArtifactIDs    []uuid.UUID `json:"artifact_ids"`
	ArtifactTitles []string    `json:"artifact_titles"`
	Confidence     float64     `json:"confidence"`
	PatternType    PatternType `json:"pattern_type"`
}

// Recommendation is an ephemeral suggestion; it is never matched against storage.
type Recommendation struct {
	Title      string       `json:"title"`
	Creator    string       `json:"creator,omitempty"`
	Type       ArtifactType `json:"type"`
	Reason     string       `json:"reason"`
	Confidence float64      `json:"confidence"`
}

func (r Recommendation) Score() float64 { return r.Confidence }

// llm wire shapes

type entityResponse struct {
	Artifacts             []ExtractedArtifact `json:"artifacts"`
	Concepts              []Concept           `json:"concepts"`
	UserStatedConnections []Connection        `json:"user_stated_connections"`
	SuggestedConnections  []Connection        `json:"suggested_connections"`
}

type rawPattern struct {
	Pattern     string      `json:"pattern"`
	Description string      `json:"description"`
	Artifacts   []string    `json:"artifacts"`
	Confidence  float64     `json:"confidence"`
	PatternType PatternType `json:"pattern_type"`
}

func (p rawPattern) Score() float64 { return p.Confidence }

type patternResponse struct {
	Patterns []rawPattern `json:"patterns"`
}

type recommendationResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
}
