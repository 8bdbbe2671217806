package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Jacobbrewer1/discordgo"
)

// fakePlatform is an in-memory Platform that records every outbound call.
type fakePlatform struct {
	mu sync.Mutex

	// sent is every message sent, in order.
	sent []*Message

	// deleted is every channelID/messageID pair deleted.
	deleted [][2]string

	// dms maps userID to the DM contents sent to them.
	dms map[string][]string

	// overwrites maps channelID to the role overwrites applied to it.
	overwrites map[string][]appliedOverwrite

	// topics maps channelID to its latest topic.
	topics map[string]string

	// rolesAdded and rolesRemoved record guild/user/role triples.
	rolesAdded   [][3]string
	rolesRemoved [][3]string

	// threads maps channelID to the names of threads created on it.
	threads map[string][]string

	// knownRoles and knownMembers back RoleExists and MemberExists.
	knownRoles   map[string]bool
	knownMembers map[string]bool

	// messages backs FetchMessage, keyed by channelID/messageID.
	messages map[string]*Message

	// history backs FirstMessages, keyed by channelID, oldest first.
	history map[string][]*Message

	// guildNames backs GuildName.
	guildNames map[string]string

	// memberRoles backs MemberRoles, keyed by guildID/userID.
	memberRoles map[string][]string

	// replies maps a sent message ID to the message it replied to.
	replies map[string]string

	nextID int
}

type appliedOverwrite struct {
	roleID string
	ow     Overwrite
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		dms:          make(map[string][]string),
		overwrites:   make(map[string][]appliedOverwrite),
		topics:       make(map[string]string),
		threads:      make(map[string][]string),
		knownRoles:   make(map[string]bool),
		knownMembers: make(map[string]bool),
		messages:     make(map[string]*Message),
		history:      make(map[string][]*Message),
		guildNames:   make(map[string]string),
		memberRoles:  make(map[string][]string),
		replies:      make(map[string]string),
	}
}

func (f *fakePlatform) CreateThread(_ context.Context, channelID, name string, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threads[channelID] = append(f.threads[channelID], name)
	f.nextID++
	return fmt.Sprintf("thread-%d", f.nextID), nil
}

func (f *fakePlatform) SendMessage(_ context.Context, channelID, content string, embeds ...*discordgo.MessageEmbed) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	msg := &Message{
		ID:        fmt.Sprintf("msg-%d", f.nextID),
		ChannelID: channelID,
		Content:   content,
		Embeds:    embeds,
		Timestamp: time.Now().UTC(),
	}
	f.sent = append(f.sent, msg)
	return msg, nil
}

func (f *fakePlatform) SendReply(ctx context.Context, channelID, replyToID, content string, embeds ...*discordgo.MessageEmbed) (*Message, error) {
	msg, err := f.SendMessage(ctx, channelID, content, embeds...)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[msg.ID] = replyToID
	return msg, nil
}

func (f *fakePlatform) SendDirectMessage(_ context.Context, userID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dms[userID] = append(f.dms[userID], content)
	return nil
}

func (f *fakePlatform) DeleteMessage(_ context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, [2]string{channelID, messageID})
	return nil
}

func (f *fakePlatform) SetRoleOverwrite(_ context.Context, channelID, roleID string, ow Overwrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overwrites[channelID] = append(f.overwrites[channelID], appliedOverwrite{roleID: roleID, ow: ow})
	return nil
}

func (f *fakePlatform) EditChannelTopic(_ context.Context, channelID, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics[channelID] = topic
	return nil
}

func (f *fakePlatform) AddRole(_ context.Context, guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rolesAdded = append(f.rolesAdded, [3]string{guildID, userID, roleID})
	return nil
}

func (f *fakePlatform) RemoveRole(_ context.Context, guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rolesRemoved = append(f.rolesRemoved, [3]string{guildID, userID, roleID})
	return nil
}

func (f *fakePlatform) FetchMessage(_ context.Context, channelID, messageID string) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[channelID+"/"+messageID], nil
}

func (f *fakePlatform) FirstMessages(_ context.Context, channelID string, limit int) ([]*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.history[channelID]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (f *fakePlatform) RoleExists(_ context.Context, _, roleID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.knownRoles[roleID], nil
}

func (f *fakePlatform) MemberExists(_ context.Context, guildID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.knownMembers[guildID+"/"+userID], nil
}

func (f *fakePlatform) MemberRoles(_ context.Context, guildID, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.memberRoles[guildID+"/"+userID], nil
}

func (f *fakePlatform) GuildName(_ context.Context, guildID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.guildNames[guildID], nil
}

// sentContents returns the content of every sent message, in order.
func (f *fakePlatform) sentContents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.Content)
	}
	return out
}
