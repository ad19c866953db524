// Package storage uploads encoded media to object storage and issues the
// remote references attached to posts. Amazon S3 and MinIO backends share the
// same object layout:
//
//	<use_case>/<yyyy>/<mm>/<object-id><ext>
//
// and every object is served from PublicBaseURL + "/" + key.
package storage
