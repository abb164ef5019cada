package signup

// User-facing notice texts produced locally.
const (
	NoticeAcceptTerms     = "Please accept our Terms of Service and Privacy Policy!"
	NoticeNetwork         = "Network unavailable. Please try again."
	NoticeResendThrottled = "Please wait before requesting another email."
)

// showNotice overwrites the single notice slot.
func showNotice(msg string) Notice {
	return Notice{Message: msg, Visible: true}
}
