package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jasperwreed/pixel-chat/internal/api"
	"github.com/jasperwreed/pixel-chat/internal/app"
	"github.com/spf13/cobra"
)

func NewImagesCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Search and manage the image gallery",
		Long:  `Query the backend gallery directly, without going through the chat agent.`,
		Example: `  # Text search
  pixel-chat images search "red car at night" --top-k 5

  # Images similar to a known one
  pixel-chat images similar 9b7e...

  # Upload with tags
  pixel-chat images upload a.jpg b.png --tags trip,2024`,
	}

	cmd.AddCommand(
		newImagesSearchCommand(env),
		newImagesSimilarCommand(env),
		newImagesListCommand(env),
		newImagesUploadCommand(env),
		newImagesDeleteCommand(env),
	)

	return cmd
}

type searchFlags struct {
	topK      int
	threshold float64
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.topK, "top-k", 10, "Maximum number of images to return")
	cmd.Flags().Float64Var(&f.threshold, "min-score", 0, "Drop results scoring below this value")
}

func (f *searchFlags) scoreThreshold() *float64 {
	if f.threshold <= 0 {
		return nil
	}
	threshold := f.threshold
	return &threshold
}

func newImagesSearchCommand(env *environment) *cobra.Command {
	var flags searchFlags
	var tags []string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search images by text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := env.app.API.SearchText(cmd.Context(), strings.Join(args, " "), api.TextSearchOptions{
				TopK:           flags.topK,
				ScoreThreshold: flags.scoreThreshold(),
				Tags:           tags,
			})
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			printSearchResponse(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Only images carrying these tags")

	return cmd
}

func newImagesSimilarCommand(env *environment) *cobra.Command {
	var flags searchFlags
	var instruction string

	cmd := &cobra.Command{
		Use:   "similar <image-id>",
		Short: "Find images similar to a stored image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				resp *api.SearchResponse
				err  error
			)
			if instruction == "" {
				resp, err = env.app.API.SearchByImage(cmd.Context(), args[0], flags.topK, flags.scoreThreshold())
			} else {
				resp, err = env.app.API.Search(cmd.Context(), api.SearchParams{
					QueryImageID:   args[0],
					Instruction:    instruction,
					TopK:           flags.topK,
					ScoreThreshold: flags.scoreThreshold(),
				})
			}
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			printSearchResponse(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&instruction, "instruction", "", "How the results should differ from the image (e.g. \"but at night\")")

	return cmd
}

func newImagesListCommand(env *environment) *cobra.Command {
	var opts api.ListImagesOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List gallery images",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImagesList(cmd.Context(), cmd.OutOrStdout(), env.app, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 20, "Images per page")
	cmd.Flags().StringVar(&opts.SortBy, "sort", "created_at", "Sort field")
	cmd.Flags().StringVar(&opts.SortOrder, "order", "desc", "Sort order: asc or desc")

	return cmd
}

func newImagesUploadCommand(env *environment) *cobra.Command {
	var tags []string
	var description string
	var noIndex bool

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload image files to the gallery",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := api.UploadOptions{AutoIndex: !noIndex, Tags: tags, Description: description}
			return runImagesUpload(cmd.Context(), cmd.OutOrStdout(), env.app, args, opts)
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Tags to attach")
	cmd.Flags().StringVar(&description, "description", "", "Description to attach")
	cmd.Flags().BoolVar(&noIndex, "no-index", false, "Store without indexing for search")

	return cmd
}

func newImagesDeleteCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <image-id>",
		Short: "Delete a gallery image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.app.API.DeleteImage(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete image: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted image %s\n", args[0])
			return nil
		},
	}
}

func printSearchResponse(w io.Writer, resp *api.SearchResponse) {
	if len(resp.Data) == 0 {
		fmt.Fprintln(w, "No images found.")
		return
	}

	fmt.Fprintf(w, "Found %d image(s):\n\n", len(resp.Data))
	for i, img := range resp.Data {
		fmt.Fprintf(w, "%d. %s\n", i+1, img.ID)
		printImage(w, img)
		if len(img.Metadata.Tags) > 0 {
			fmt.Fprintf(w, "  Tags: %s\n", strings.Join(img.Metadata.Tags, ", "))
		}
	}
}

func runImagesList(ctx context.Context, w io.Writer, a *app.App, opts api.ListImagesOptions) error {
	resp, err := a.API.ListImages(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}

	if len(resp.Data) == 0 {
		fmt.Fprintln(w, "No images found.")
		return nil
	}

	fmt.Fprintf(w, "Images %d of %d (page %d):\n\n", len(resp.Data), resp.Total, resp.Page)
	for _, img := range resp.Data {
		fmt.Fprintf(w, "[%s] %s\n", img.ID, img.Filename)
		fmt.Fprintf(w, "  %dx%d %s | %d bytes | %s\n", img.Width, img.Height, img.Format, img.FileSize, img.CreatedAt)
	}
	return nil
}

func runImagesUpload(ctx context.Context, w io.Writer, a *app.App, paths []string, opts api.UploadOptions) error {
	v := NewValidator()

	var failed int
	for _, path := range paths {
		if err := v.ValidateImage(path); err != nil {
			fmt.Fprintf(w, "✗ %s: %v\n", path, err)
			failed++
			continue
		}

		resp, err := a.API.Upload(ctx, path, opts)
		if err != nil {
			fmt.Fprintf(w, "✗ %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "✓ %s -> %s\n", path, resp.Data.ID)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d upload(s) failed", failed, len(paths))
	}
	return nil
}
