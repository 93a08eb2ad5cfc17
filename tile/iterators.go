package tile

import (
	"errors"
	"iter"
)

var errVisitCancelled = errors.New("visit cancelled")

// IterContents returns an iterator over all contents in the storage.
// It yields content URIs and data. Iteration panics on unrecoverable errors.
func IterContents(v Visitor) iter.Seq2[string, []byte] {
	return func(yield func(string, []byte) bool) {
		err := v.VisitContents(func(uri string, data []byte) error {
			if !yield(uri, data) {
				return errVisitCancelled
			}
			return nil
		})
		if err != nil && !errors.Is(err, errVisitCancelled) {
			panic(err)
		}
	}
}

// Copy writes every content of src to dst and finalizes dst.
// progress, if not nil, is called after each content is written.
func Copy(dst Writer, src Visitor, progress func(uri string)) error {
	err := src.VisitContents(func(uri string, data []byte) error {
		if err := dst.WriteContent(uri, data); err != nil {
			return err
		}
		if progress != nil {
			progress(uri)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return dst.Finalize()
}
