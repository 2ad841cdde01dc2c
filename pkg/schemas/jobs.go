// File: pkg/schemas/jobs.go
package schemas

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Credentials identify the account a batch runs as. They are never persisted.
type Credentials struct {
	Email         string `yaml:"email" validate:"required"`
	Password      string `yaml:"password"`
	RecoveryEmail string `yaml:"recovery_email"`
}

// Visibility is the privacy setting applied on publish.
type Visibility string

const (
	VisibilityPrivate       Visibility = "private"
	VisibilityUnlisted      Visibility = "unlisted"
	VisibilityPublic        Visibility = "public"
	VisibilityPublicPremier Visibility = "public&premiere"
)

// Radio returns the privacy radio name used by the console.
func (v Visibility) Radio() string {
	switch v {
	case VisibilityPublicPremier:
		return "PUBLIC"
	default:
		return strings.ToUpper(string(v))
	}
}

// Premiere reports whether the visibility also schedules a premiere.
func (v Visibility) Premiere() bool { return v == VisibilityPublicPremier }

// Stage is the phase an upload is in.
type Stage string

const (
	StageUploading  Stage = "uploading"
	StageProcessing Stage = "processing"
	StageDone       Stage = "done"
)

// Progress is emitted to OnProgress callbacks.
type Progress struct {
	Percentage int
	Stage      Stage
}

// GameData describes one candidate of the game title search.
type GameData struct {
	Title string `json:"title"`
	Year  string `json:"year,omitempty"`
	ID    string `json:"id,omitempty"`
}

// ParseGameData decodes the JSON the console stores in a candidate's test-id.
// Non-JSON values are returned as a bare title.
func ParseGameData(raw string) GameData {
	var g GameData
	if strings.HasPrefix(raw, `{"title"`) && json.Unmarshal([]byte(raw), &g) == nil {
		return g
	}
	return GameData{Title: strings.TrimSpace(raw)}
}

// UploadJob describes one file to publish.
type UploadJob struct {
	Path        string     `yaml:"path" validate:"required"`
	Title       string     `yaml:"title" validate:"required"`
	Description string     `yaml:"description"`
	Tags        []string   `yaml:"tags"`
	Language    string     `yaml:"language"`
	Playlist    string     `yaml:"playlist"`
	Thumbnail   string     `yaml:"thumbnail"`
	ChannelName string     `yaml:"channel"`
	PublishType Visibility `yaml:"visibility" validate:"omitempty,oneof=private unlisted public public&premiere"`

	NotForKids       bool `yaml:"not_for_kids"`
	AgeRestricted    bool `yaml:"age_restricted"`
	ChannelMonetized bool `yaml:"monetized"`
	UploadAsDraft    bool `yaml:"draft"`
	// SkipProcessingWait returns as soon as the file is uploaded, without
	// waiting for the platform to finish processing.
	SkipProcessingWait bool `yaml:"skip_processing_wait"`
	// NotifySubscribers is only acted on when explicitly false.
	NotifySubscribers *bool `yaml:"notify_subscribers"`

	GameTitleSearch string `yaml:"game_title_search"`

	GameSelector func(GameData) bool `yaml:"-"`
	OnSuccess    func(Result) error  `yaml:"-"`
	OnProgress   func(Progress)      `yaml:"-"`
}

// EditJob changes the metadata of an existing video. Empty fields are left untouched.
type EditJob struct {
	Link        string     `yaml:"link" validate:"required,url"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Tags        []string   `yaml:"tags"`
	ReplaceTags []string   `yaml:"replace_tags"`
	Language    string     `yaml:"language"`
	Playlist    string     `yaml:"playlist"`
	Thumbnail   string     `yaml:"thumbnail"`
	ChannelName string     `yaml:"channel"`
	PublishType Visibility `yaml:"visibility" validate:"omitempty,oneof=private unlisted public public&premiere"`

	NotForKids    *bool `yaml:"not_for_kids"`
	AgeRestricted *bool `yaml:"age_restricted"`

	GameTitleSearch string              `yaml:"game_title_search"`
	GameSelector    func(GameData) bool `yaml:"-"`
	OnSuccess       func(Result) error  `yaml:"-"`
}

// CommentJob posts one comment.
type CommentJob struct {
	Link        string `yaml:"link" validate:"required,url"`
	Text        string `yaml:"text" validate:"required"`
	Live        bool   `yaml:"live"`
	Pin         bool   `yaml:"pin"`
	ChannelName string `yaml:"channel"`

	OnSuccess func(Result) error `yaml:"-"`
}

// Result is the outcome of one job.
type Result struct {
	// Target is the file path or link the job addressed.
	Target string
	// Value is the canonical video link for uploads and edits, "success" for comments.
	Value string
	Err   error
}

// OK reports whether the job succeeded.
func (r Result) OK() bool { return r.Err == nil }

// CommentSuccess is the Value of a successful comment Result.
const CommentSuccess = "success"
