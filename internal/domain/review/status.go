package review

import "strings"

type AssetStatus string

const (
	StatusPendingReview     AssetStatus = "pending_review"
	StatusInReview          AssetStatus = "in_review"
	StatusClientReview      AssetStatus = "client_review"
	StatusApproved          AssetStatus = "approved"
	StatusRevisionRequested AssetStatus = "revision_requested"
)

var AllStatuses = []AssetStatus{
	StatusPendingReview,
	StatusInReview,
	StatusClientReview,
	StatusApproved,
	StatusRevisionRequested,
}

// ClientFacingStatuses are the only statuses a client-restricted viewer may see.
var ClientFacingStatuses = []AssetStatus{
	StatusClientReview,
	StatusApproved,
	StatusRevisionRequested,
}

func ParseStatus(s string) (AssetStatus, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

func (s AssetStatus) ClientFacing() bool {
	for _, st := range ClientFacingStatuses {
		if s == st {
			return true
		}
	}
	return false
}

func StatusStrings(in []AssetStatus) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}

type AssetType string

const (
	AssetTypeImage  AssetType = "image"
	AssetTypeVideo  AssetType = "video"
	AssetTypePDF    AssetType = "pdf"
	AssetTypeDesign AssetType = "design"
)

func ParseAssetType(s string) (AssetType, bool) {
	switch t := AssetType(strings.ToLower(strings.TrimSpace(s))); t {
	case AssetTypeImage, AssetTypeVideo, AssetTypePDF, AssetTypeDesign:
		return t, true
	default:
		return "", false
	}
}

// SupportsRegion reports whether comments may carry a rectangle overlay.
// Design source files are not rendered in the review viewer.
func (t AssetType) SupportsRegion() bool {
	return t == AssetTypeImage || t == AssetTypeVideo || t == AssetTypePDF
}

func (t AssetType) SupportsTimestamp() bool { return t == AssetTypeVideo }

func (t AssetType) SupportsPage() bool { return t == AssetTypePDF }

type ApprovalAction string

const (
	ActionApproved          ApprovalAction = "approved"
	ActionRevisionRequested ApprovalAction = "revision_requested"
)

type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestInProgress RequestStatus = "in_progress"
	RequestCompleted  RequestStatus = "completed"
	RequestCancelled  RequestStatus = "cancelled"
)

func ParseRequestStatus(s string) (RequestStatus, bool) {
	switch st := RequestStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case RequestPending, RequestInProgress, RequestCompleted, RequestCancelled:
		return st, true
	default:
		return "", false
	}
}
