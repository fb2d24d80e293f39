package exchange

type Options struct {
	// UserAgent overrides the default "apitarget/<version>".
	UserAgent string
}
