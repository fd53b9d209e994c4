// Package model defines the roster entities: users, groups, channels and join
// requests.
//
// The collections are denormalized. A user lists the groups it belongs to, a
// group lists its members, admins and channels, and a channel lists its group,
// members and banned users. Each relationship is therefore recorded twice and
// must only be changed through pkg/membership, which updates both sides in one
// transaction.
//
// Values handed out by the membership service are deep copies (see the Clone
// methods); mutating them has no effect on stored state.
package model
