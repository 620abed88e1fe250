package domain

// TagEventKind distinguishes the tag lifecycle events published by the tag
// registry.
type TagEventKind string

const (
	TagCreated TagEventKind = "created"
	TagRenamed TagEventKind = "renamed"
	TagDeleted TagEventKind = "deleted"
)

// TagEvent describes one change to the tag registry.
// Tag is the created, deleted, or post-rename value. Old is set only for
// TagRenamed and carries the retired value; it shares Tag's ID.
type TagEvent struct {
	Kind TagEventKind
	Tag  Tag
	Old  Tag
}

func TagCreatedEvent(t Tag) TagEvent { return TagEvent{Kind: TagCreated, Tag: t} }

func TagRenamedEvent(old, renamed Tag) TagEvent {
	return TagEvent{Kind: TagRenamed, Tag: renamed, Old: old}
}

func TagDeletedEvent(t Tag) TagEvent { return TagEvent{Kind: TagDeleted, Tag: t} }
