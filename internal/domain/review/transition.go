package review

// Event is an input to the asset status machine.
type Event string

const (
	EventPrivilegedView  Event = "privileged_view"
	EventSendToClient    Event = "send_to_client"
	EventApprove         Event = "approve"
	EventRequestRevision Event = "request_revision"
	EventUploadVersion   Event = "upload_version"
)

// Sources lists, per event, the statuses the event may fire from.
var Sources = map[Event][]AssetStatus{
	EventPrivilegedView:  {StatusPendingReview},
	EventSendToClient:    {StatusInReview},
	EventApprove:         {StatusInReview, StatusClientReview},
	EventRequestRevision: {StatusInReview, StatusClientReview},
	EventUploadVersion:   AllStatuses,
}

var targets = map[Event]AssetStatus{
	EventPrivilegedView:  StatusInReview,
	EventSendToClient:    StatusClientReview,
	EventApprove:         StatusApproved,
	EventRequestRevision: StatusRevisionRequested,
	EventUploadVersion:   StatusPendingReview,
}

// Next returns the status reached by applying ev to current.
func Next(current AssetStatus, ev Event) (AssetStatus, bool) {
	for _, s := range Sources[ev] {
		if s == current {
			return targets[ev], true
		}
	}
	return "", false
}
