package xiaohongshu

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/rednote-cli/internal/config"
)

func testPublishConfig() config.PublishConfig {
	return config.PublishConfig{
		NavigationTimeout: 100 * time.Millisecond,
		UploadWait:        100 * time.Millisecond,
		SubmitWait:        5 * time.Millisecond,
	}
}

func writeTestImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("not really a png"), 0o600))
	return path
}

func requireStage(t *testing.T, err error, want Stage) {
	t.Helper()
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, want, stageErr.Stage)
}

func TestPublishValidateStage(t *testing.T) {
	page := &fakePage{}
	flow := NewPublishFlow(page, testPublishConfig(), zaptest.NewLogger(t))

	err := flow.Publish(context.Background(), PublishRequest{
		Title:      "标题",
		Content:    "正文",
		ImagePaths: []string{filepath.Join(t.TempDir(), "missing.png")},
	})

	requireStage(t, err, StageValidate)
	assert.Empty(t, page.gotoCalls, "no navigation before local validation passes")
}

func TestPublishNavigateStage(t *testing.T) {
	image := writeTestImage(t, "photo.png")

	t.Run("goto failure", func(t *testing.T) {
		page := &fakePage{
			gotoFn: func(url string, opts ...playwright.PageGotoOptions) (playwright.Response, error) {
				return nil, errors.New("net::ERR_TIMED_OUT")
			},
		}
		flow := NewPublishFlow(page, testPublishConfig(), zaptest.NewLogger(t))

		err := flow.Publish(context.Background(), PublishRequest{
			Title: "标题", Content: "正文", ImagePaths: []string{image},
		})
		requireStage(t, err, StageNavigate)
		require.Equal(t, []string{ComposerURL}, page.gotoCalls)
	})

	t.Run("upload area never appears", func(t *testing.T) {
		page := &fakePage{} // WaitForSelector defaults to failure
		flow := NewPublishFlow(page, testPublishConfig(), zaptest.NewLogger(t))

		err := flow.Publish(context.Background(), PublishRequest{
			Title: "标题", Content: "正文", ImagePaths: []string{image},
		})
		requireStage(t, err, StageNavigate)
	})
}

func TestPublishAbortsAtUploadStage(t *testing.T) {
	image := writeTestImage(t, "photo.jpg")

	var waited []string
	page := &fakePage{
		waitForSelector: func(selector string, opts ...playwright.PageWaitForSelectorOptions) (playwright.ElementHandle, error) {
			waited = append(waited, selector)
			if selector == uploadAreaSelector {
				return &fakeElement{}, nil
			}
			return nil, errors.New("selector never matched")
		},
	}
	flow := NewPublishFlow(page, testPublishConfig(), zaptest.NewLogger(t))

	err := flow.Publish(context.Background(), PublishRequest{
		Title: "标题", Content: "正文", ImagePaths: []string{image},
	})

	requireStage(t, err, StageUpload)
	// The flow must stop cold: no title or content probes after the
	// upload failed.
	for _, selector := range waited {
		assert.NotContains(t, titleSelectors, selector)
		assert.NotEqual(t, contentEditorSelector, selector)
		assert.NotEqual(t, submitButtonSelector, selector)
	}
}

func TestUploadImagesSetsAllPathsAtOnce(t *testing.T) {
	input := &fakeElement{}
	page := &fakePage{
		waitForSelector: func(selector string, opts ...playwright.PageWaitForSelectorOptions) (playwright.ElementHandle, error) {
			require.Equal(t, uploadInputSelector, selector)
			return input, nil
		},
	}
	flow := NewPublishFlow(page, testPublishConfig(), zaptest.NewLogger(t))

	paths := []string{"/tmp/a.png", "/tmp/b.jpg", "/tmp/c.webp"}
	require.NoError(t, flow.uploadImages(context.Background(), paths))
	assert.Equal(t, paths, input.inputFiles)
}

func TestSelectImageTabFallsBackToLabelMatch(t *testing.T) {
	videoTab := &fakeElement{text: "上传视频"}
	imageTab := &fakeElement{text: "上传图文"}
	page := &fakePage{
		querySelectorAll: func(selector string) ([]playwright.ElementHandle, error) {
			require.Equal(t, tabElementSelector, selector)
			return []playwright.ElementHandle{videoTab, imageTab}, nil
		},
	}
	flow := NewPublishFlow(page, testPublishConfig(), zaptest.NewLogger(t))

	flow.selectImageTab(context.Background())

	assert.Zero(t, videoTab.clicks)
	assert.Equal(t, 1, imageTab.clicks)
}

func TestSelectImageTabMissIsNonFatal(t *testing.T) {
	flow := NewPublishFlow(&fakePage{}, testPublishConfig(), zaptest.NewLogger(t))
	// No tab anywhere; the flow just moves on.
	flow.selectImageTab(context.Background())
}

func TestFillTitleExhaustsSelectorChain(t *testing.T) {
	pageInput := &fakeElement{attrs: map[string]string{"type": "file", "class": "upload-input"}}
	page := &fakePage{
		querySelectorAll: func(selector string) ([]playwright.ElementHandle, error) {
			return []playwright.ElementHandle{pageInput}, nil
		},
	}
	flow := NewPublishFlow(page, testPublishConfig(), zaptest.NewLogger(t))

	err := flow.fillTitle(context.Background(), "标题")
	requireStage(t, err, StageFillTitle)
}

func TestFillContentPlaceholderWalk(t *testing.T) {
	textbox := &fakeElement{attrs: map[string]string{"role": "textbox"}}
	wrapper := &fakeElement{
		querySelector: func(string) (playwright.ElementHandle, error) { return textbox, nil },
	}
	paragraph := &fakeElement{
		attrs:         map[string]string{"data-placeholder": "输入正文描述，真诚分享"},
		querySelector: func(string) (playwright.ElementHandle, error) { return wrapper, nil },
	}
	page := &fakePage{
		querySelectorAll: func(selector string) ([]playwright.ElementHandle, error) {
			require.Equal(t, "p", selector)
			return []playwright.ElementHandle{paragraph}, nil
		},
	}
	flow := NewPublishFlow(page, testPublishConfig(), zaptest.NewLogger(t))

	require.NoError(t, flow.fillContent(context.Background(), "正文内容"))
	assert.Equal(t, []string{"正文内容"}, textbox.fills)
}

func TestFillContentNoStrategyMatches(t *testing.T) {
	flow := NewPublishFlow(&fakePage{}, testPublishConfig(), zaptest.NewLogger(t))

	err := flow.fillContent(context.Background(), "正文")
	requireStage(t, err, StageFillContent)
}

func TestSubmitClicksAndPauses(t *testing.T) {
	button := &fakeElement{}
	page := &fakePage{
		waitForSelector: func(selector string, opts ...playwright.PageWaitForSelectorOptions) (playwright.ElementHandle, error) {
			require.Equal(t, submitButtonSelector, selector)
			return button, nil
		},
	}
	flow := NewPublishFlow(page, testPublishConfig(), zaptest.NewLogger(t))

	require.NoError(t, flow.submit(context.Background()))
	assert.Equal(t, 1, button.clicks)
}

func TestPublishHappyPath(t *testing.T) {
	if testing.Short() {
		t.Skip("exercises the full pipeline with its settle pauses")
	}

	imageA := writeTestImage(t, "a.png")
	imageB := writeTestImage(t, "b.jpg")

	uploadInput := &fakeElement{}
	titleInput := &fakeElement{}
	editor := &fakeElement{}
	submitButton := &fakeElement{}

	page := &fakePage{
		waitForSelector: func(selector string, opts ...playwright.PageWaitForSelectorOptions) (playwright.ElementHandle, error) {
			switch selector {
			case uploadAreaSelector:
				return &fakeElement{}, nil
			case uploadInputSelector:
				return uploadInput, nil
			case titleSelectors[0]:
				return titleInput, nil
			case contentEditorSelector:
				return editor, nil
			case submitButtonSelector:
				return submitButton, nil
			}
			return nil, errors.New("selector never matched")
		},
		querySelector: func(selector string) (playwright.ElementHandle, error) {
			// The editor-ready poll sees the edit view immediately.
			if selector == editorReadySelectors[0] {
				return &fakeElement{}, nil
			}
			return nil, nil
		},
	}
	flow := NewPublishFlow(page, testPublishConfig(), zaptest.NewLogger(t))

	err := flow.Publish(context.Background(), PublishRequest{
		Title:      "周末去了趟海边",
		Content:    "拍了一些照片，分享给大家。",
		ImagePaths: []string{imageA, imageB},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{imageA, imageB}, uploadInput.inputFiles)
	assert.Equal(t, []string{"周末去了趟海边"}, titleInput.fills)
	assert.Equal(t, []string{"拍了一些照片，分享给大家。"}, editor.fills)
	assert.Equal(t, 1, submitButton.clicks)
}

func TestOnlyFileInputsPresent(t *testing.T) {
	t.Run("all file inputs", func(t *testing.T) {
		page := &fakePage{
			querySelectorAll: func(string) ([]playwright.ElementHandle, error) {
				return []playwright.ElementHandle{
					&fakeElement{attrs: map[string]string{"type": "file"}},
					&fakeElement{attrs: map[string]string{}},
				}, nil
			},
		}
		flow := NewPublishFlow(page, testPublishConfig(), zaptest.NewLogger(t))
		assert.True(t, flow.onlyFileInputsPresent())
	})

	t.Run("text input means the edit view arrived", func(t *testing.T) {
		page := &fakePage{
			querySelectorAll: func(string) ([]playwright.ElementHandle, error) {
				return []playwright.ElementHandle{
					&fakeElement{attrs: map[string]string{"type": "file"}},
					&fakeElement{attrs: map[string]string{"type": "text"}},
				}, nil
			},
		}
		flow := NewPublishFlow(page, testPublishConfig(), zaptest.NewLogger(t))
		assert.False(t, flow.onlyFileInputsPresent())
	})
}
