package output

type Options struct {
	PrintTarget        bool
	PrintRequestHeader bool
	PrintRequestBody   bool

	EnableColor bool
}
