package cmd

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/rednote-cli/internal/xiaohongshu"
)

func newPublishCmd(a *app) *cobra.Command {
	var (
		title   string
		content string
		images  []string
		dryRun  bool
	)

	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Publishes an image+text post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := xiaohongshu.PublishRequest{
				Title:      title,
				Content:    content,
				ImagePaths: images,
			}
			if err := req.Validate(); err != nil {
				return err
			}

			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "Dry run: would publish %q with %d image(s).\n",
					req.Title, len(req.ImagePaths))
				return nil
			}

			manager, err := a.newBrowserManager()
			if err != nil {
				return err
			}

			err = manager.WithPage(cmd.Context(), func(page playwright.Page) error {
				if !xiaohongshu.NewLoginFlow(page, a.logger).CheckLoginStatus(cmd.Context()) {
					return fmt.Errorf("cannot publish: %w, run `rednote-cli login` first", ErrNotLoggedIn)
				}
				return xiaohongshu.NewPublishFlow(page, a.cfg.Publish, a.logger).Publish(cmd.Context(), req)
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Published %q.\n", req.Title)
			return nil
		},
	}

	publishCmd.Flags().StringVarP(&title, "title", "t", "", "post title (at most 40 characters)")
	publishCmd.Flags().StringVarP(&content, "content", "c", "", "post body text")
	publishCmd.Flags().StringSliceVarP(&images, "image", "i", nil, "image file to attach (repeatable)")
	publishCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the post without opening a browser")
	_ = publishCmd.MarkFlagRequired("title")
	_ = publishCmd.MarkFlagRequired("content")
	_ = publishCmd.MarkFlagRequired("image")

	return publishCmd
}
