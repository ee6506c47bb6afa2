package domain

import "strings"

// Metadata keys attached to an uploaded video by the upload flow.
const (
	MetadataLessonID  = "lessonid"
	MetadataCreatorID = "creatorid"
	MetadataUploadID  = "uploadid"
)

// ObjectMetadata is the user metadata stored with an object, keyed in lower case.
type ObjectMetadata map[string]string

// Get looks a key up case-insensitively.
func (m ObjectMetadata) Get(key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// JobContext carries everything the dispatcher knows about one processing job.
// It lives for the duration of a single record and is never persisted.
type JobContext struct {
	LessonID    string
	CreatorID   string
	UploadID    string
	InputBucket string
	InputKey    string
}

// NewJobContext builds a JobContext from object metadata, failing with a
// *ValidationError when a required key is missing or empty.
func NewJobContext(bucket, key string, md ObjectMetadata) (*JobContext, error) {
	job := &JobContext{
		LessonID:    md.Get(MetadataLessonID),
		CreatorID:   md.Get(MetadataCreatorID),
		UploadID:    md.Get(MetadataUploadID),
		InputBucket: bucket,
		InputKey:    key,
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}

// Validate checks the required identifiers are present.
func (j *JobContext) Validate() error {
	var missing []string
	if j.LessonID == "" {
		missing = append(missing, MetadataLessonID)
	}
	if j.CreatorID == "" {
		missing = append(missing, MetadataCreatorID)
	}
	if len(missing) > 0 {
		return &ValidationError{Bucket: j.InputBucket, Key: j.InputKey, Missing: missing}
	}
	return nil
}
