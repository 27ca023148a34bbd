package glossary

import "errors"

// ErrLoad indicates the glossary resource is missing or does not have the
// expected shape. Callers fall back to an empty glossary.
var ErrLoad = errors.New("glossary load failed")
