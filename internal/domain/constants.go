package domain

// Notification types. The set is open: any non-empty type is persisted as-is.
const (
	NotificationFriendRequest = "friend_request"
	NotificationFriendAccept  = "friend_accept"
	NotificationLike          = "like"
	NotificationLikeComment   = "like_comment"
	NotificationComment       = "comment"
	NotificationMessage       = "message"
)

const (
	FriendshipPending  = "PENDING"
	FriendshipAccepted = "ACCEPTED"
)

// Verification states of a user account.
const (
	VerificationUnverified = "UNVERIFIED"
	VerificationPending    = "PENDING"
	VerificationVerified   = "VERIFIED"
)

// Live channel event names.
const (
	EventNotification      = "notification"
	EventNotificationsRead = "notifications_read"
	EventNewMessage        = "new_message"
	EventUserTyping        = "user_typing"
	EventUserStopTyping    = "user_stop_typing"
	EventError             = "error"

	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventTyping            = "typing"
	EventStopTyping        = "stop_typing"
)

// ReputationKind names an entry of the fixed reputation table.
type ReputationKind string

const (
	CreatePost     ReputationKind = "CREATE_POST"
	ReceiveLike    ReputationKind = "RECEIVE_LIKE"
	ReceiveComment ReputationKind = "RECEIVE_COMMENT"
	CreateComment  ReputationKind = "CREATE_COMMENT"
)

var reputationPoints = map[ReputationKind]int{
	CreatePost:     5,
	ReceiveLike:    1,
	ReceiveComment: 2,
	CreateComment:  1,
}

// Points returns the delta for kind and whether kind is in the table.
func (k ReputationKind) Points() (int, bool) {
	p, ok := reputationPoints[k]
	return p, ok
}

// Reaction types accepted on posts and comments.
var ReactionTypes = []string{"like", "love", "haha", "wow", "sad", "angry"}

func IsReaction(t string) bool {
	for _, r := range ReactionTypes {
		if r == t {
			return true
		}
	}
	return false
}
