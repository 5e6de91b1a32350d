package behavior_encoder

import (
	"github.com/jtomasevic/bloc/pkg/activity"
	"github.com/jtomasevic/bloc/pkg/symbols"
)

// ActionCategory classifies an event into one of the seven action categories.
func ActionCategory(ev *activity.Event) string {
	switch ev.Kind() {
	case activity.KindReply:
		switch {
		case ev.IsSelfTargeted():
			return symbols.SelfReply
		case ev.Relationship == activity.RelationshipFriend:
			return symbols.FriendReply
		default:
			return symbols.NonFriendReply
		}
	case activity.KindReshare:
		switch {
		case ev.IsSelfTargeted():
			return symbols.SelfReshare
		case ev.Relationship == activity.RelationshipFriend:
			return symbols.FriendReshare
		default:
			return symbols.NonFriendReshare
		}
	default:
		return symbols.Post
	}
}
