package model

import (
	"errors"
	"io"
	"strconv"
)

// Multipart field names understood by the processing service.
const (
	FieldVideo       = "video"
	FieldShape       = "shape"
	FieldBoxColor    = "box_color"
	FieldStrokeWidth = "stroke_width"
	FieldConnection  = "connection"
	FieldConnColor   = "conn_color"
	FieldLabelType   = "label_type"
	FieldCustomText  = "custom_text"
	FieldTextColor   = "text_color"
	FieldMaxBlobs    = "max_blobs"
	FieldMinSize     = "min_size"
)

var ErrNoSource = errors.New("file selection has no payload")

// Source yields the raw bytes of a selected file. Each call to Open starts
// a fresh read.
type Source interface {
	Open() (io.ReadCloser, error)
}

// FileSelection is the one local video chosen for submission.
type FileSelection struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Size      int64  `json:"size,omitempty"`
	Path      string `json:"path,omitempty"`

	Source Source `json:"-"`
}

func (f FileSelection) Open() (io.ReadCloser, error) {
	if f.Source == nil {
		return nil, ErrNoSource
	}
	return f.Source.Open()
}

func (f FileSelection) IsZero() bool {
	return f.Name == "" && f.Source == nil
}

// RenderParameters is the full set of options sent with one submission.
type RenderParameters struct {
	Shape           string `json:"shape"`
	BoxColor        string `json:"box_color"`
	StrokeWidth     int    `json:"stroke_width"`
	Connection      string `json:"connection"`
	ConnectionColor string `json:"conn_color"`
	LabelType       string `json:"label_type"`
	CustomText      string `json:"custom_text"`
	TextColor       string `json:"text_color"`
	MaxBlobs        int    `json:"max_blobs"`
	MinBlobSize     int    `json:"min_size"`
}

type FormField struct {
	Name  string
	Value string
}

// FormFields returns the non-file form parts in wire order. custom_text is
// always present, even when empty.
func (p RenderParameters) FormFields() []FormField {
	return []FormField{
		{Name: FieldShape, Value: p.Shape},
		{Name: FieldBoxColor, Value: p.BoxColor},
		{Name: FieldStrokeWidth, Value: strconv.Itoa(p.StrokeWidth)},
		{Name: FieldConnection, Value: p.Connection},
		{Name: FieldConnColor, Value: p.ConnectionColor},
		{Name: FieldLabelType, Value: p.LabelType},
		{Name: FieldCustomText, Value: p.CustomText},
		{Name: FieldTextColor, Value: p.TextColor},
		{Name: FieldMaxBlobs, Value: strconv.Itoa(p.MaxBlobs)},
		{Name: FieldMinSize, Value: strconv.Itoa(p.MinBlobSize)},
	}
}

// RequiredFields lists every part the service expects, video first.
func RequiredFields() []string {
	return []string{
		FieldVideo,
		FieldShape,
		FieldBoxColor,
		FieldStrokeWidth,
		FieldConnection,
		FieldConnColor,
		FieldLabelType,
		FieldCustomText,
		FieldTextColor,
		FieldMaxBlobs,
		FieldMinSize,
	}
}
