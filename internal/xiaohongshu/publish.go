package xiaohongshu

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rednote-cli/internal/config"
)

// PublishFlow drives the composer page through the image+text
// submission workflow. One flow serves one page in one session scope.
type PublishFlow struct {
	page   playwright.Page
	cfg    config.PublishConfig
	logger *zap.Logger
}

// NewPublishFlow binds a publish flow to a page.
func NewPublishFlow(page playwright.Page, cfg config.PublishConfig, logger *zap.Logger) *PublishFlow {
	return &PublishFlow{page: page, cfg: cfg, logger: logger.Named("publish")}
}

// Publish runs the linear pipeline: validate local files, navigate to
// the composer, pick the image+text tab, upload the images, wait for
// the editor view, fill title and body, submit. The first hard failure
// aborts the remainder and surfaces as a StageError naming the stage.
func (f *PublishFlow) Publish(ctx context.Context, req PublishRequest) error {
	f.logger.Info("Starting publish.",
		zap.String("title", req.Title),
		zap.Int("images", len(req.ImagePaths)))

	// Defense in depth: the caller validated the request already, but
	// the files may have vanished since.
	if err := f.validateLocalFiles(req.ImagePaths); err != nil {
		return stageErr(StageValidate, err)
	}

	if err := f.navigateToComposer(ctx); err != nil {
		return err
	}

	if err := f.uploadImages(ctx, req.ImagePaths); err != nil {
		return err
	}

	// Non-fatal: field-fill has its own fallback chains.
	f.waitForEditorReady(ctx)

	if err := f.fillTitle(ctx, req.Title); err != nil {
		return err
	}

	if err := f.fillContent(ctx, req.Content); err != nil {
		return err
	}

	if err := f.submit(ctx); err != nil {
		return err
	}

	f.logger.Info("Publish submitted.")
	return nil
}

// validateLocalFiles re-checks that every image still exists and is a
// regular file. Pure local check, no browser interaction.
func (f *PublishFlow) validateLocalFiles(paths []string) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("image file not accessible: %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("image path is not a regular file: %s", path)
		}
	}
	return nil
}

// navigateToComposer opens the composer with an extended timeout (the
// creator endpoint is slow) and requires the upload area to become
// visible; without it the page did not load and continuing is pointless.
func (f *PublishFlow) navigateToComposer(ctx context.Context) error {
	f.logger.Info("Navigating to composer.", zap.String("url", ComposerURL))

	_, err := f.page.Goto(ComposerURL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(f.cfg.NavigationTimeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return stageErrf(StageNavigate, "failed to open composer: %w", err)
	}

	_, err = f.page.WaitForSelector(uploadAreaSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(uploadAreaTimeout.Milliseconds())),
		State:   playwright.WaitForSelectorStateVisible,
	})
	if err != nil {
		return stageErrf(StageNavigate, "upload area never appeared, composer did not load: %w", err)
	}

	if err := pause(ctx, settleWait); err != nil {
		return stageErr(StageNavigate, err)
	}

	f.selectImageTab(ctx)

	if err := pause(ctx, settleWait); err != nil {
		return stageErr(StageNavigate, err)
	}
	return nil
}

// selectImageTab clicks the image+text tab. Some UI states show the
// upload form without a tab step, so not finding one is non-fatal.
func (f *PublishFlow) selectImageTab(ctx context.Context) {
	for _, selector := range imageTabSelectors {
		el, err := f.page.QuerySelector(selector)
		if err != nil || el == nil {
			continue
		}
		if err := el.Click(); err != nil {
			f.logger.Debug("Tab click failed, trying next selector.",
				zap.String("selector", selector), zap.Error(err))
			continue
		}
		f.logger.Info("Image tab selected.", zap.String("selector", selector))
		_ = pause(ctx, settleWait)
		return
	}

	// Fallback: match tab candidates by their text.
	tabs, err := f.page.QuerySelectorAll(tabElementSelector)
	if err != nil {
		f.logger.Warn("Could not enumerate tabs, continuing without tab selection.", zap.Error(err))
		return
	}
	f.logger.Debug("Scanning tab candidates by label.", zap.Int("count", len(tabs)))

	for i, tab := range tabs {
		text, err := textContent(tab, tabTextTimeout)
		if err != nil {
			f.logger.Debug("Skipping unreadable tab.", zap.Int("index", i), zap.Error(err))
			continue
		}
		if strings.Contains(text, imageTabLabel) {
			if err := tab.Click(); err != nil {
				f.logger.Debug("Labelled tab click failed.", zap.Int("index", i), zap.Error(err))
				continue
			}
			f.logger.Info("Image tab selected by label.", zap.Int("index", i))
			_ = pause(ctx, settleWait)
			return
		}
	}

	f.logger.Info("No image tab found, assuming the form is already showing.")
}

// uploadImages assigns every image path to the upload input in one call.
// Failure here is fatal: nothing downstream can work without the upload.
func (f *PublishFlow) uploadImages(ctx context.Context, paths []string) error {
	f.logger.Info("Uploading images.", zap.Int("count", len(paths)))

	input, err := f.page.WaitForSelector(uploadInputSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(f.cfg.UploadWait.Milliseconds())),
		State:   playwright.WaitForSelectorStateAttached,
	})
	if err != nil {
		return stageErrf(StageUpload, "upload input never appeared: %w", err)
	}

	if err := input.SetInputFiles(paths); err != nil {
		return stageErrf(StageUpload, "failed to set upload files: %w", err)
	}

	f.logger.Info("Upload files set.")
	return nil
}

// waitForEditorReady polls for the composer's transition from the
// upload-only view to the edit view. The transition timing and markup
// are unstable, so two signals are checked each round: any known editor
// element, and "the inputs are no longer exclusively file-type".
// Running out of rounds is not fatal; the field-fill fallback chains
// take over from there.
func (f *PublishFlow) waitForEditorReady(ctx context.Context) {
	// The upload itself needs a moment before the view can flip.
	if err := pause(ctx, 3*time.Second); err != nil {
		return
	}

	for round := 1; round <= editorPollRounds; round++ {
		for _, selector := range editorReadySelectors {
			el, err := f.page.QuerySelector(selector)
			if err != nil {
				continue
			}
			if el != nil {
				f.logger.Info("Editor view is ready.",
					zap.String("selector", selector), zap.Int("round", round))
				return
			}
		}

		if !f.onlyFileInputsPresent() {
			f.logger.Info("Page left the upload-only state.", zap.Int("round", round))
			return
		}

		if err := pause(ctx, editorPollInterval); err != nil {
			return
		}
	}

	f.logger.Warn("Editor readiness not confirmed, proceeding optimistically.")
}

// onlyFileInputsPresent reports whether every typed input on the page is
// a file input, which is the signature of the upload-only view.
func (f *PublishFlow) onlyFileInputsPresent() bool {
	inputs, err := f.page.QuerySelectorAll("input")
	if err != nil {
		return true
	}
	for _, input := range inputs {
		inputType, err := input.GetAttribute("type")
		if err != nil || inputType == "" {
			continue
		}
		if inputType != "file" {
			return false
		}
	}
	return true
}

// fillTitle tries the title selector candidates in order with a short
// per-candidate timeout. Exhausting the chain is a hard failure, after
// dumping what inputs the page actually has for diagnosis.
func (f *PublishFlow) fillTitle(ctx context.Context, title string) error {
	f.logger.Debug("Filling title.", zap.String("url", f.page.URL()))

	for _, selector := range titleSelectors {
		el, err := f.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
			Timeout: playwright.Float(float64(fieldProbeTimeout.Milliseconds())),
			State:   playwright.WaitForSelectorStateVisible,
		})
		if err != nil || el == nil {
			continue
		}
		if err := el.Fill(title); err != nil {
			return stageErrf(StageFillTitle, "failed to fill title via %q: %w", selector, err)
		}
		f.logger.Info("Title filled.", zap.String("selector", selector))
		return pauseStage(ctx, StageFillTitle)
	}

	f.logInputDiagnostics()
	return stageErrf(StageFillTitle, "no title input matched any selector")
}

// logInputDiagnostics dumps type/placeholder/class of every input on the
// page. Only runs on the title hard-failure path.
func (f *PublishFlow) logInputDiagnostics() {
	inputs, err := f.page.QuerySelectorAll("input")
	if err != nil {
		f.logger.Warn("Could not enumerate inputs for diagnostics.", zap.Error(err))
		return
	}
	f.logger.Warn("Title input not found, dumping page inputs.", zap.Int("count", len(inputs)))
	for i, input := range inputs {
		inputType, _ := input.GetAttribute("type")
		placeholder, _ := input.GetAttribute("placeholder")
		class, _ := input.GetAttribute("class")
		f.logger.Info("Page input.",
			zap.Int("index", i),
			zap.String("type", inputType),
			zap.String("placeholder", placeholder),
			zap.String("class", class))
	}
}

// fillContent locates the body field via three strategies in order: the
// rich-text editor, a structural search from the body placeholder up to
// its textbox ancestor, and a plain textarea. No match is a hard failure.
func (f *PublishFlow) fillContent(ctx context.Context, content string) error {
	el := f.findContentElement()
	if el == nil {
		return stageErrf(StageFillContent, "no content field matched any strategy")
	}

	if err := el.Fill(content); err != nil {
		return stageErrf(StageFillContent, "failed to fill content: %w", err)
	}
	f.logger.Info("Content filled.")
	return pauseStage(ctx, StageFillContent)
}

func (f *PublishFlow) findContentElement() playwright.ElementHandle {
	if el, err := f.page.WaitForSelector(contentEditorSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(fieldProbeTimeout.Milliseconds())),
	}); err == nil && el != nil {
		f.logger.Debug("Content field found via rich-text editor selector.")
		return el
	}

	if el := f.findTextboxByPlaceholder(); el != nil {
		f.logger.Debug("Content field found via placeholder walk.")
		return el
	}

	if el, err := f.page.WaitForSelector(contentTextareaSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(fieldProbeTimeout.Milliseconds())),
	}); err == nil && el != nil {
		f.logger.Debug("Content field found via textarea selector.")
		return el
	}

	return nil
}

// findTextboxByPlaceholder scans paragraph elements for the body-field
// placeholder, then climbs the ancestor chain looking for the element
// whose accessibility role marks it as the text box.
func (f *PublishFlow) findTextboxByPlaceholder() playwright.ElementHandle {
	paragraphs, err := f.page.QuerySelectorAll("p")
	if err != nil {
		return nil
	}

	for _, p := range paragraphs {
		placeholder, err := p.GetAttribute("data-placeholder")
		if err != nil || !strings.Contains(placeholder, contentPlaceholder) {
			continue
		}

		current := p
		for range ancestorWalkLimit {
			parent, err := current.QuerySelector("xpath=..")
			if err != nil || parent == nil {
				break
			}
			role, err := parent.GetAttribute("role")
			if err == nil && role == "textbox" {
				return parent
			}
			current = parent
		}
	}
	return nil
}

// submit clicks the publish button and pauses long enough for the
// submission request to be dispatched. No server-side confirmation is
// read back; completion is assumed once the click lands.
func (f *PublishFlow) submit(ctx context.Context) error {
	if err := pauseStage(ctx, StageSubmit); err != nil {
		return err
	}

	button, err := f.page.WaitForSelector(submitButtonSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(submitWaitTimeout.Milliseconds())),
		State:   playwright.WaitForSelectorStateVisible,
	})
	if err != nil {
		return stageErrf(StageSubmit, "submit button never appeared: %w", err)
	}

	if err := button.Click(); err != nil {
		return stageErrf(StageSubmit, "failed to click submit: %w", err)
	}
	f.logger.Info("Submit clicked, waiting for dispatch.")

	if err := pause(ctx, f.cfg.SubmitWait); err != nil {
		return stageErr(StageSubmit, err)
	}
	return nil
}

// pauseStage is pause with the interruption attributed to a stage.
func pauseStage(ctx context.Context, stage Stage) error {
	if err := pause(ctx, settleWait); err != nil {
		return stageErr(stage, err)
	}
	return nil
}

// textContent reads an element's text with its own bound, since a
// detached element can make the read hang.
func textContent(el playwright.ElementHandle, timeout time.Duration) (string, error) {
	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		text, err := el.TextContent()
		ch <- result{text: text, err: err}
	}()

	select {
	case r := <-ch:
		return r.text, r.err
	case <-time.After(timeout):
		return "", fmt.Errorf("text content read timed out after %s", timeout)
	}
}
