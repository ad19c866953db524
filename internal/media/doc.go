// Package media defines the media items attached to a post submission:
// their raw and encoded payloads, the per-item lifecycle state, the remote
// references issued by storage, and the compression and upload capabilities
// the submission pipeline consumes.
package media
