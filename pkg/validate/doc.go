// Package validate implements the template selection and four-factor
// scoring pipeline that assesses raw device output against structured-text
// extraction templates. The scoring constants are a fixed contract and
// must not be tuned silently.
package validate
