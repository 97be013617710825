package hypixel

import (
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Friend is one accepted friend request
type Friend struct {
	ID       *string    `json:"id,omitempty"`
	Sender   *uuid.UUID `json:"sender,omitempty"`
	Receiver *uuid.UUID `json:"receiver,omitempty"`
	Started  *time.Time `json:"started,omitempty"`
}

// Other returns the side of the friendship that is not self
func (f Friend) Other(self uuid.UUID) *uuid.UUID {
	if f.Sender != nil && *f.Sender == self {
		return f.Receiver
	}
	return f.Sender
}

// FriendManager holds every friend of one player
type FriendManager struct {
	UUID *uuid.UUID `json:"uuid,omitempty"`
	All  []Friend   `json:"all"`
}

// Session is a player's online status
type Session struct {
	Online   bool    `json:"online"`
	GameType *string `json:"game_type,omitempty"`
	Mode     *string `json:"mode,omitempty"`
	Map      *string `json:"map,omitempty"`
}

func mapFriendManager(raw gjson.Result) (*FriendManager, error) {
	f := newFields("FriendManager", raw)
	m := &FriendManager{UUID: f.id("uuid")}
	for _, record := range f.array("records") {
		friend, err := mapFriend(record)
		if err != nil {
			return nil, err
		}
		m.All = append(m.All, friend)
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	return m, nil
}

func mapFriend(raw gjson.Result) (Friend, error) {
	f := newFields("Friend", raw)
	friend := Friend{
		ID:       f.str("_id"),
		Sender:   f.id("uuidSender"),
		Receiver: f.id("uuidReceiver"),
		Started:  f.millis("started"),
	}
	return friend, f.err()
}

func mapSession(raw gjson.Result) (*Session, error) {
	f := newFields("Session", raw)
	s := &Session{
		GameType: f.str("gameType"),
		Mode:     f.str("mode"),
		Map:      f.str("map"),
	}
	if online := f.boolean("online"); online != nil {
		s.Online = *online
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	return s, nil
}
