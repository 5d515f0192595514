package contentcmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-blog/internal/content"
)

const newDocumentMessageType = "blog.content.new"

// DocumentCallback receives the scaffolded document and the file it was written to.
type DocumentCallback func(DocumentEnvelope)

// DocumentEnvelope captures the outcome of a new document command.
type DocumentEnvelope struct {
	Document *content.Document
	File     string
}

// NewDocumentCommand scaffolds an article under the content directory.
type NewDocumentCommand struct {
	Path       string           `json:"path"`
	Title      string           `json:"title,omitempty"`
	Tags       []string         `json:"tags,omitempty"`
	Categories []string         `json:"categories,omitempty"`
	Format     string           `json:"format,omitempty"`
	Draft      bool             `json:"draft"`
	Force      bool             `json:"force,omitempty"`
	Callback   DocumentCallback `json:"-"`
}

// Type implements command.Message.
func (NewDocumentCommand) Type() string { return newDocumentMessageType }

// Validate checks the path, format and tag values.
func (m NewDocumentCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Path,
			validation.Required,
			validation.By(func(any) error {
				if !strings.HasSuffix(strings.ToLower(m.Path), ".md") {
					return validation.NewError("blog.content.new.path_extension", "must be a .md file")
				}
				return nil
			}),
		),
		validation.Field(&m.Format, validation.By(func(any) error {
			if _, ok := content.ParseFormat(m.Format); !ok {
				return validation.NewError("blog.content.new.format_invalid", "must be yaml, toml or json")
			}
			return nil
		})),
		validation.Field(&m.Tags, validation.Each(validation.Required)),
		validation.Field(&m.Categories, validation.Each(validation.Required)),
	)
}
