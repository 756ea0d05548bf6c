// Package attendance reconciles event participation pages into a
// member-by-event attendance matrix.
//
// For every event, in ascending date order, members who joined after the
// event are first marked StatusNotYetMember. The event's participation page
// is then read section by section in a fixed precedence order, and each
// section overwrites the cells of the members it lists. With the default
// order Cancelled, Organizer, Confirmed, a member listed in several sections
// ends up Confirmed over Organizer over Cancelled over NotYetMember.
//
// A participation page that cannot be fetched leaves the event's column at
// its pre-membership values. Participants missing from the roster are logged
// and dropped; rows without a profile link are counted as anonymous.
package attendance
