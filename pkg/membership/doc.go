/*
Package membership is the only write path for users, groups, channels and
join requests.

Each operation runs in a transaction (see Service.Transact) that

  - write-locks the collections it changes and read-locks the others, always
    in the order users, groups, channels, join_requests
  - loads a fresh snapshot from the repository and stages changes on it
  - checks permissions with pkg/permissions against that snapshot
  - optionally runs the invariant verifier
  - persists the changed collections in one batch

A rejected operation returns an *Error and persists nothing:

	err := svc.JoinChannel(ctx, userID, channelID)
	if errors.Is(err, membership.ErrBanned) {
		// ...
	}

Audit events are written after commit. Values returned by the service are
copies and may be modified freely.
*/
package membership
