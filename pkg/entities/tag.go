package entities

// Tag is a snippet of text callable by name. A tag with a title is rendered
// as a rich embed; otherwise the content is sent as plain text.
type Tag struct {
	// GuildID is the ID of the owning guild.
	GuildID string `gorm:"primaryKey"`

	// Name is the tag's name, unique per guild.
	Name string `gorm:"primaryKey;size:32"`

	// Content is the plain-text body, or the embed description when rich.
	Content string `gorm:"size:2000"`

	Title     string `gorm:"size:256"`
	URL       string
	Color     int
	Footer    string `gorm:"size:2048"`
	Image     string
	Thumbnail string
	Author    string `gorm:"size:256"`
}

// Rich reports whether the tag is rendered as an embed.
func (t *Tag) Rich() bool {
	return t.Title != ""
}
