package pack

import (
	"regexp"

	"golang.org/x/text/unicode/norm"

	"github.com/t333watch/t333watch/pkg/sanitizer"
	"github.com/t333watch/t333watch/pkg/validator"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 1000
	maxTags           = 10
	maxTagLen         = 30
	maxOffsetSeconds  = 24 * 60 * 60
)

var (
	channelNamePattern = regexp.MustCompile(`^[a-z0-9_]{3,25}$`)

	cleanText        = sanitizer.Compose(norm.NFC.String, sanitizer.RemoveControlChars, sanitizer.RemoveExtraWhitespace)
	cleanDescription = sanitizer.Compose(norm.NFC.String, sanitizer.RemoveControlChars, sanitizer.Trim)
	cleanTag         = sanitizer.Compose(cleanText, sanitizer.ToLower)
	cleanChannel     = sanitizer.Compose(sanitizer.Trim, sanitizer.ToLower)

	visibilities = []Visibility{Public, Private}
)

type CreateInput struct {
	Title       string
	Description string
	Tags        []string
	Visibility  Visibility
}

// UpdateInput changes only the non-nil fields.
type UpdateInput struct {
	Title       *string
	Description *string
	Tags        *[]string
	Visibility  *Visibility
}

type StreamInput struct {
	ChannelName   string
	OffsetSeconds int
}

func (in *CreateInput) normalize() error {
	in.Title = cleanText(in.Title)
	in.Description = cleanDescription(in.Description)
	in.Tags = cleanTags(in.Tags)
	if in.Visibility == "" {
		in.Visibility = Public
	}

	rules := append(titleRules(in.Title), descriptionRules(in.Description)...)
	rules = append(rules, tagRules(in.Tags)...)
	rules = append(rules, validator.InList("visibility", in.Visibility, visibilities))
	return validator.Apply(rules...)
}

func (in *UpdateInput) normalize() error {
	var rules []validator.Rule
	if in.Title != nil {
		t := cleanText(*in.Title)
		in.Title = &t
		rules = append(rules, titleRules(t)...)
	}
	if in.Description != nil {
		d := cleanDescription(*in.Description)
		in.Description = &d
		rules = append(rules, descriptionRules(d)...)
	}
	if in.Tags != nil {
		tags := cleanTags(*in.Tags)
		in.Tags = &tags
		rules = append(rules, tagRules(tags)...)
	}
	if in.Visibility != nil {
		rules = append(rules, validator.InList("visibility", *in.Visibility, visibilities))
	}
	return validator.Apply(rules...)
}

func (in *StreamInput) normalize() error {
	in.ChannelName = cleanChannel(in.ChannelName)
	return validator.Apply(
		validator.MatchesRegex("channel_name", in.ChannelName, channelNamePattern, "a Twitch login (3-25 letters, digits or underscores)"),
		validator.MinNum("offset_seconds", in.OffsetSeconds, -maxOffsetSeconds),
		validator.MaxNum("offset_seconds", in.OffsetSeconds, maxOffsetSeconds),
	)
}

func titleRules(title string) []validator.Rule {
	return []validator.Rule{
		validator.RequiredString("title", title),
		validator.MaxLenString("title", title, maxTitleLen),
	}
}

func descriptionRules(d string) []validator.Rule {
	return []validator.Rule{validator.MaxLenString("description", d, maxDescriptionLen)}
}

// cleanTags lowercases, drops blanks and keeps the first of each duplicate.
func cleanTags(tags []string) []string {
	return sanitizer.Deduplicate(sanitizer.FilterEmpty(sanitizer.TransformSlice(tags, cleanTag)))
}

func tagRules(tags []string) []validator.Rule {
	rules := validator.Each(tags, func(tag string) validator.Rule {
		return validator.MaxLenString("tags", tag, maxTagLen)
	})
	return append(rules, validator.MaxLenSlice("tags", tags, maxTags))
}
