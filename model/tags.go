package model

// Tag is a key/value annotation attached to a span or to a sampling
// decision. Values are restricted to bool, int64, float64 and string.
type Tag struct {
	Key   string      `codec:"key" json:"key"`
	Value interface{} `codec:"value" json:"value"`
}

// BoolTag returns a tag holding a boolean value.
func BoolTag(key string, value bool) Tag {
	return Tag{Key: key, Value: value}
}

// Int64Tag returns a tag holding an integer value.
func Int64Tag(key string, value int64) Tag {
	return Tag{Key: key, Value: value}
}

// Float64Tag returns a tag holding a floating point value.
func Float64Tag(key string, value float64) Tag {
	return Tag{Key: key, Value: value}
}

// StringTag returns a tag holding a string value.
func StringTag(key string, value string) Tag {
	return Tag{Key: key, Value: value}
}
