package xiaohongshu

import (
	"errors"

	"github.com/playwright-community/playwright-go"
)

// The fakes embed the playwright interfaces and override only what the
// flows touch; anything else panics with a nil receiver, which is the
// point: a test reaching an unstubbed method is a test bug.

type fakePage struct {
	playwright.Page

	gotoFn           func(url string, opts ...playwright.PageGotoOptions) (playwright.Response, error)
	querySelector    func(selector string) (playwright.ElementHandle, error)
	querySelectorAll func(selector string) ([]playwright.ElementHandle, error)
	waitForSelector  func(selector string, opts ...playwright.PageWaitForSelectorOptions) (playwright.ElementHandle, error)
	contentFn        func() (string, error)
	currentURL       string

	gotoCalls []string
}

func (p *fakePage) Goto(url string, opts ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.gotoCalls = append(p.gotoCalls, url)
	if p.gotoFn != nil {
		return p.gotoFn(url, opts...)
	}
	return nil, nil
}

func (p *fakePage) QuerySelector(selector string, opts ...playwright.PageQuerySelectorOptions) (playwright.ElementHandle, error) {
	if p.querySelector != nil {
		return p.querySelector(selector)
	}
	return nil, nil
}

func (p *fakePage) QuerySelectorAll(selector string) ([]playwright.ElementHandle, error) {
	if p.querySelectorAll != nil {
		return p.querySelectorAll(selector)
	}
	return nil, nil
}

func (p *fakePage) WaitForSelector(selector string, opts ...playwright.PageWaitForSelectorOptions) (playwright.ElementHandle, error) {
	if p.waitForSelector != nil {
		return p.waitForSelector(selector, opts...)
	}
	return nil, errors.New("selector never matched")
}

func (p *fakePage) Content() (string, error) {
	if p.contentFn != nil {
		return p.contentFn()
	}
	return "", nil
}

func (p *fakePage) URL() string {
	return p.currentURL
}

type fakeElement struct {
	playwright.ElementHandle

	clickErr      error
	fillErr       error
	text          string
	textErr       error
	attrs         map[string]string
	setInputErr   error
	querySelector func(selector string) (playwright.ElementHandle, error)

	clicks     int
	fills      []string
	inputFiles []string
}

func (e *fakeElement) Click(opts ...playwright.ElementHandleClickOptions) error {
	e.clicks++
	return e.clickErr
}

func (e *fakeElement) Fill(value string, opts ...playwright.ElementHandleFillOptions) error {
	if e.fillErr != nil {
		return e.fillErr
	}
	e.fills = append(e.fills, value)
	return nil
}

func (e *fakeElement) TextContent() (string, error) {
	return e.text, e.textErr
}

func (e *fakeElement) GetAttribute(name string) (string, error) {
	return e.attrs[name], nil
}

func (e *fakeElement) SetInputFiles(files interface{}, opts ...playwright.ElementHandleSetInputFilesOptions) error {
	if e.setInputErr != nil {
		return e.setInputErr
	}
	if paths, ok := files.([]string); ok {
		e.inputFiles = append(e.inputFiles, paths...)
	}
	return nil
}

func (e *fakeElement) QuerySelector(selector string) (playwright.ElementHandle, error) {
	if e.querySelector != nil {
		return e.querySelector(selector)
	}
	return nil, nil
}
