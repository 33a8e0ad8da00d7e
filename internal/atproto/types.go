package atproto

import "encoding/json"

// Header names used by the AppView to negotiate labeler federation.
const (
	HeaderAcceptLabelers  = "atproto-accept-labelers"
	HeaderContentLabelers = "atproto-content-labelers"
)

// Lexicon identifiers used by this client.
const (
	NSIDCreateSession     = "com.atproto.server.createSession"
	NSIDGetPreferences    = "app.bsky.actor.getPreferences"
	NSIDGetProfile        = "app.bsky.actor.getProfile"
	NSIDGetLabelerService = "app.bsky.labeler.getServices"

	TypeLabelersPref = "app.bsky.actor.defs#labelersPref"
)

// Session is an authenticated account session.
type Session struct {
	DID        string `json:"did"`
	Handle     string `json:"handle"`
	AccessJWT  string `json:"accessJwt"`
	RefreshJWT string `json:"refreshJwt"`
}

type createSessionInput struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type preferencesOutput struct {
	Preferences []json.RawMessage `json:"preferences"`
}

type preferenceType struct {
	Type string `json:"$type"`
}

// LabelersPref is the preference record listing subscribed labelers.
type LabelersPref struct {
	Labelers []LabelerPrefItem `json:"labelers"`
}

// LabelerPrefItem is one subscribed labeler.
type LabelerPrefItem struct {
	DID string `json:"did"`
}

// ProfileViewBasic is the creator block of a labeler view.
type ProfileViewBasic struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName,omitempty"`
}

// LabelerView describes a labeler service as returned by getServices.
type LabelerView struct {
	URI       string           `json:"uri"`
	CID       string           `json:"cid"`
	Creator   ProfileViewBasic `json:"creator"`
	LikeCount int64            `json:"likeCount,omitempty"`
	IndexedAt string           `json:"indexedAt,omitempty"`
}

// DisplayNameOrHandle returns the creator's display name, falling back to the handle.
func (v LabelerView) DisplayNameOrHandle() string {
	if v.Creator.DisplayName != "" {
		return v.Creator.DisplayName
	}
	return v.Creator.Handle
}

type getServicesOutput struct {
	Views []LabelerView `json:"views"`
}

type xrpcErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
