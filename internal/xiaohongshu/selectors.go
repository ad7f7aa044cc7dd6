package xiaohongshu

import "time"

// The platform's web UI is third-party markup that changes without
// notice. Everything below is a heuristic probe, kept in the exact order
// the flows try them; first match wins and a miss falls through to the
// next probe.

const (
	// ExploreURL is the landing page; it hosts the QR login widget and
	// the authenticated navigation chrome.
	ExploreURL = "https://www.xiaohongshu.com/explore"
	// ComposerURL is the creator-studio publish page.
	ComposerURL = "https://creator.xiaohongshu.com/publish/publish?source=official"
)

// loginIndicator only renders inside the authenticated navigation chrome,
// which makes it the primary login signal.
const loginIndicator = ".main-container .user .link-wrapper .channel"

// userIndicators are broader, lower-confidence signals tried after the
// primary indicator.
var userIndicators = []string{
	".user-avatar",
	"[class*='user']",
	"[class*='avatar']",
	".header-user",
	"[data-testid*='user']",
}

// loggedInMarkers are UI labels that only appear for authenticated users.
var loggedInMarkers = []string{
	"个人主页",
	"我的",
	"设置",
	"退出登录",
	"发布",
	"创作中心",
}

// loginPathFragments in the current URL mean we were bounced to the
// login page.
var loginPathFragments = []string{"login", "signin"}

// uploadAreaSelector must become visible before the composer is usable.
const uploadAreaSelector = "div.upload-content"

// uploadInputSelector is the file input that receives the images.
const uploadInputSelector = ".upload-input"

// imageTabSelectors are tried first when picking the image+text tab.
var imageTabSelectors = []string{
	"[data-value='image']",
	"[class*='image']",
	"div.creator-tab:nth-child(2)",
}

// tabElementSelector enumerates tab candidates for the text-match
// fallback, and imageTabLabel is the label to match.
const (
	tabElementSelector = "div.creator-tab"
	imageTabLabel      = "上传图文"
)

// editorReadySelectors indicate the composer has left the upload-only
// view and entered the edit view.
var editorReadySelectors = []string{
	"div.d-input input",
	".d-input input",
	"input[placeholder*='标题']",
	"textarea",
	".ql-editor",
	"[contenteditable='true']",
	".publish-form",
	".edit-content",
}

// titleSelectors are the title-input candidates, most specific first.
var titleSelectors = []string{
	"div.d-input input",
	".d-input input",
	"input[placeholder*='标题']",
	"input[placeholder*='title']",
	".title-input",
	"[class*='title'] input",
	"textarea[placeholder*='标题']",
	"input[type='text']",
}

const (
	// contentEditorSelector is the rich-text body editor.
	contentEditorSelector = "div.ql-editor"
	// contentPlaceholder identifies the body field in the structural
	// placeholder search.
	contentPlaceholder = "输入正文描述"
	// contentTextareaSelector is the last-resort body field.
	contentTextareaSelector = "textarea"
	// submitButtonSelector dispatches the publish request.
	submitButtonSelector = "div.submit div.d-button-content"
)

const (
	statusNavTimeout   = 15 * time.Second
	statusSettleWait   = 2 * time.Second
	loginPollTimeout   = 5 * time.Minute
	loginPollInterval  = 2 * time.Second
	uploadAreaTimeout  = 15 * time.Second
	tabTextTimeout     = 1 * time.Second
	editorPollRounds   = 15
	editorPollInterval = 1 * time.Second
	fieldProbeTimeout  = 3 * time.Second
	submitWaitTimeout  = 10 * time.Second
	settleWait         = 1 * time.Second
	// ancestorWalkLimit bounds the placeholder-to-textbox ancestor climb.
	ancestorWalkLimit = 5
)
