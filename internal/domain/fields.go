package domain

import "time"

// NullableID distinguishes "set to this id" from "set to null".
// A nil *NullableID in a field set means "leave unchanged".
type NullableID struct {
	Valid bool
	ID    string
}

// SetID returns a NullableID pointing at id.
func SetID(id string) *NullableID { return &NullableID{Valid: true, ID: id} }

// NullID returns a NullableID that clears the reference.
func NullID() *NullableID { return &NullableID{} }

// Ptr returns its pointer for field-set literals.
func (n *NullableID) Ptr() *string {
	if n == nil || !n.Valid {
		return nil
	}
	return &n.ID
}

// IssueFields is a partial override set for an Issue. Nil means unchanged.
type IssueFields struct {
	Number       *int
	Title        *string
	Date         *time.Time
	Published    *bool
	VersionCount *int
	PreviewImage *string
}

// TopicFields is a partial override set for a Topic.
type TopicFields struct {
	Title    *string
	Comment  *string
	Position *int
	IssueID  *NullableID
}

// LinkFields is a partial override set for a Link.
type LinkFields struct {
	URL      *string
	Title    *string
	Text     *string
	Position *int
	TopicID  *NullableID
}

// MergeIssueFields overlays src onto dst, field by field.
func MergeIssueFields(dst *IssueFields, src IssueFields) {
	if src.Number != nil {
		dst.Number = src.Number
	}
	if src.Title != nil {
		dst.Title = src.Title
	}
	if src.Date != nil {
		dst.Date = src.Date
	}
	if src.Published != nil {
		dst.Published = src.Published
	}
	if src.VersionCount != nil {
		dst.VersionCount = src.VersionCount
	}
	if src.PreviewImage != nil {
		dst.PreviewImage = src.PreviewImage
	}
}

// MergeTopicFields overlays src onto dst, field by field.
func MergeTopicFields(dst *TopicFields, src TopicFields) {
	if src.Title != nil {
		dst.Title = src.Title
	}
	if src.Comment != nil {
		dst.Comment = src.Comment
	}
	if src.Position != nil {
		dst.Position = src.Position
	}
	if src.IssueID != nil {
		dst.IssueID = src.IssueID
	}
}

// MergeLinkFields overlays src onto dst, field by field.
func MergeLinkFields(dst *LinkFields, src LinkFields) {
	if src.URL != nil {
		dst.URL = src.URL
	}
	if src.Title != nil {
		dst.Title = src.Title
	}
	if src.Text != nil {
		dst.Text = src.Text
	}
	if src.Position != nil {
		dst.Position = src.Position
	}
	if src.TopicID != nil {
		dst.TopicID = src.TopicID
	}
}

// ApplyIssueFields returns a copy of base with f overlaid.
// The base value is never mutated.
func ApplyIssueFields(base Issue, f IssueFields) Issue {
	if f.Number != nil {
		base.Number = *f.Number
	}
	if f.Title != nil {
		base.Title = *f.Title
	}
	if f.Date != nil {
		base.Date = *f.Date
	}
	if f.Published != nil {
		base.Published = *f.Published
	}
	if f.VersionCount != nil {
		base.VersionCount = *f.VersionCount
	}
	if f.PreviewImage != nil {
		base.PreviewImage = f.PreviewImage
	}
	return base
}

// ApplyTopicFields returns a copy of base with f overlaid.
func ApplyTopicFields(base Topic, f TopicFields) Topic {
	if f.Title != nil {
		base.Title = *f.Title
	}
	if f.Comment != nil {
		base.Comment = f.Comment
	}
	if f.Position != nil {
		base.Position = *f.Position
	}
	if f.IssueID != nil {
		base.IssueID = f.IssueID.Ptr()
	}
	return base
}

// ApplyLinkFields returns a copy of base with f overlaid.
func ApplyLinkFields(base Link, f LinkFields) Link {
	if f.URL != nil {
		base.URL = *f.URL
	}
	if f.Title != nil {
		base.Title = *f.Title
	}
	if f.Text != nil {
		base.Text = *f.Text
	}
	if f.Position != nil {
		base.Position = *f.Position
	}
	if f.TopicID != nil {
		base.TopicID = f.TopicID.Ptr()
	}
	return base
}

// IssueFromFields materializes a not-yet-persisted issue from a created patch.
func IssueFromFields(id string, f IssueFields) Issue {
	return ApplyIssueFields(Issue{ID: id}, f)
}

// TopicFromFields materializes a not-yet-persisted topic from a created patch.
func TopicFromFields(id string, f TopicFields) Topic {
	return ApplyTopicFields(Topic{ID: id}, f)
}

// LinkFromFields materializes a not-yet-persisted link from a created patch.
func LinkFromFields(id string, f LinkFields) Link {
	return ApplyLinkFields(Link{ID: id}, f)
}
