package models

import (
	"sort"
	"time"
)

// MonitorKey identifies the single monitor a channel may host.
type MonitorKey struct {
	GuildID   string
	ChannelID string
}

func (k MonitorKey) String() string {
	return k.GuildID + "/" + k.ChannelID
}

// MonitorSpec describes the game server a monitor polls. It is a value type;
// replacing a monitor installs a new spec rather than editing the old one.
type MonitorSpec struct {
	ServerType string `json:"type"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
}

type MonitorState struct {
	Key           MonitorKey
	Spec          MonitorSpec
	LastMessageID string
}

// CurrentDocumentVersion is the schema version written by Save.
const CurrentDocumentVersion = 1

// Document is the whole durable footprint of the bot: monitors keyed by guild
// then channel. It holds plain data only.
type Document struct {
	Version  int                                 `json:"version"`
	Monitors map[string]map[string]DocumentEntry `json:"monitors"`
}

type DocumentEntry struct {
	Spec          MonitorSpec `json:"spec"`
	LastMessageID string      `json:"lastMessageId,omitempty"`
}

// NewDocument returns an empty document at the current schema version.
func NewDocument() Document {
	return Document{
		Version:  CurrentDocumentVersion,
		Monitors: make(map[string]map[string]DocumentEntry),
	}
}

// DocumentFromStates builds a document from a set of monitor states.
func DocumentFromStates(states []MonitorState) Document {
	doc := NewDocument()
	for _, st := range states {
		guild, ok := doc.Monitors[st.Key.GuildID]
		if !ok {
			guild = make(map[string]DocumentEntry)
			doc.Monitors[st.Key.GuildID] = guild
		}
		guild[st.Key.ChannelID] = DocumentEntry{Spec: st.Spec, LastMessageID: st.LastMessageID}
	}
	return doc
}

// States flattens the document, sorted by guild then channel.
func (d Document) States() []MonitorState {
	var states []MonitorState
	for guildID, channels := range d.Monitors {
		for channelID, entry := range channels {
			states = append(states, MonitorState{
				Key:           MonitorKey{GuildID: guildID, ChannelID: channelID},
				Spec:          entry.Spec,
				LastMessageID: entry.LastMessageID,
			})
		}
	}
	SortStates(states)
	return states
}

// Less orders keys by guild then channel.
func (k MonitorKey) Less(o MonitorKey) bool {
	if k.GuildID != o.GuildID {
		return k.GuildID < o.GuildID
	}
	return k.ChannelID < o.ChannelID
}

func SortStates(states []MonitorState) {
	sort.Slice(states, func(i, j int) bool { return states[i].Key.Less(states[j].Key) })
}

func SortKeys(keys []MonitorKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}

// StateDocument is the row the gorm store keeps the serialized document in.
type StateDocument struct {
	Name      string    `gorm:"primaryKey;column:name"`
	Version   int       `gorm:"column:version"`
	Body      string    `gorm:"column:body;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (StateDocument) TableName() string {
	return "state_documents"
}
