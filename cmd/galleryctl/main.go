// galleryctl manages the portfolio images from a terminal: it logs in to the
// backend, uploads, deletes and moves images, and keeps the display order of
// each category in a local state directory.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"portfolio-backend/internal/client"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/ordering"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const sessionKey = "session"

var cmdRoot = &cobra.Command{
	Use:           "galleryctl",
	Short:         "Manage portfolio images and their display order",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	},
}

var (
	serverURL string
	stateDir  string
	verbose   bool
)

func init() {
	cmdRoot.PersistentFlags().StringVar(&serverURL, "server", envOr("GALLERY_SERVER", "http://localhost:3001"), "Backend base URL.")
	cmdRoot.PersistentFlags().StringVar(&stateDir, "state-dir", defaultStateDir(), "Directory holding the session and the order list.")
	cmdRoot.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging.")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".galleryctl"
	}
	return filepath.Join(dir, "galleryctl")
}

// env bundles what every command needs
type env struct {
	storage *ordering.FileStorage
	api     *client.Client
	gallery *client.Gallery
}

func openEnv() (*env, error) {
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return nil, fmt.Errorf("while creating state dir: %w", err)
	}
	storage := ordering.NewFileStorage(stateDir)
	api := client.New(serverURL, nil)

	raw, ok, err := storage.Get(sessionKey)
	if err != nil {
		return nil, fmt.Errorf("while reading session: %w", err)
	}
	if ok {
		var session client.Session
		if err := json.Unmarshal(raw, &session); err == nil && time.Now().Before(session.ExpiresAt) {
			api.SetToken(session.Token)
		}
	}

	book := ordering.NewBook(storage)
	if err := book.Load(); err != nil {
		return nil, fmt.Errorf("while loading order list: %w", err)
	}

	return &env{storage: storage, api: api, gallery: client.NewGallery(api, book)}, nil
}

func parseCategory(raw string) (models.Category, error) {
	c, ok := models.ParseCategory(raw)
	if !ok {
		return "", fmt.Errorf("unknown category %q", raw)
	}
	return c, nil
}

func parseIndexes(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid position %q", a)
		}
		out[i] = n
	}
	return out, nil
}

func printImages(images []models.Image) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPUBLIC ID\tURL")
	for i, img := range images {
		fmt.Fprintf(w, "%d\t%s\t%s\n", i, img.PublicID, img.URL)
	}
	w.Flush()
}

var (
	loginEmail    string
	loginPassword string
)

var cmdLogin = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		password := loginPassword
		if password == "" {
			password = os.Getenv("GALLERY_PASSWORD")
		}

		session, err := e.api.Login(cmd.Context(), loginEmail, password)
		if err != nil {
			return fmt.Errorf("while logging in: %w", err)
		}
		data, err := json.Marshal(session)
		if err != nil {
			return err
		}
		if err := e.storage.Set(sessionKey, data); err != nil {
			return fmt.Errorf("while saving session: %w", err)
		}

		log.Info().Time("expires_at", session.ExpiresAt).Msg("Logged in")
		return nil
	},
}

func init() {
	cmdLogin.Flags().StringVar(&loginEmail, "email", os.Getenv("GALLERY_EMAIL"), "Admin email.")
	cmdLogin.Flags().StringVar(&loginPassword, "password", "", "Admin password (defaults to $GALLERY_PASSWORD).")
}

var listPublic bool

var cmdList = &cobra.Command{
	Use:   "list <category>",
	Short: "Show a category in display order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := parseCategory(args[0])
		if err != nil {
			return err
		}
		e, err := openEnv()
		if err != nil {
			return err
		}

		if listPublic {
			images, err := e.api.ListPublicImages(cmd.Context(), category)
			if err != nil {
				return fmt.Errorf("while listing %s: %w", category, err)
			}
			printImages(images)
			return nil
		}

		images, err := e.gallery.Refresh(cmd.Context(), category)
		if err != nil {
			return fmt.Errorf("while listing %s: %w", category, err)
		}
		printImages(images)
		return nil
	},
}

func init() {
	cmdList.Flags().BoolVar(&listPublic, "public", false, "Show the unauthenticated store listing instead of the ordered view.")
}

func reorderCommand(use, short string, nArgs int, run func(ctx context.Context, g *client.Gallery, c models.Category, pos []int) ([]models.Image, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nArgs + 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := parseCategory(args[0])
			if err != nil {
				return err
			}
			pos, err := parseIndexes(args[1:])
			if err != nil {
				return err
			}
			e, err := openEnv()
			if err != nil {
				return err
			}
			images, err := run(cmd.Context(), e.gallery, category, pos)
			if err != nil {
				return fmt.Errorf("while reordering %s: %w", category, err)
			}
			printImages(images)
			return nil
		},
	}
}

var cmdUp = reorderCommand("up <category> <position>", "Move an image one position earlier", 1,
	func(ctx context.Context, g *client.Gallery, c models.Category, pos []int) ([]models.Image, error) {
		return g.MoveUp(ctx, c, pos[0])
	})

var cmdDown = reorderCommand("down <category> <position>", "Move an image one position later", 1,
	func(ctx context.Context, g *client.Gallery, c models.Category, pos []int) ([]models.Image, error) {
		return g.MoveDown(ctx, c, pos[0])
	})

var cmdMoveTo = reorderCommand("move-to <category> <from> <to>", "Move an image to another position", 2,
	func(ctx context.Context, g *client.Gallery, c models.Category, pos []int) ([]models.Image, error) {
		return g.MoveTo(ctx, c, pos[0], pos[1])
	})

var (
	uploadNames []string
	uploadPair  bool
	uploadSide  string
	uploadKey   string
)

var cmdUpload = &cobra.Command{
	Use:   "upload <category> <file>...",
	Short: "Upload image files to a category",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := parseCategory(args[0])
		if err != nil {
			return err
		}
		e, err := openEnv()
		if err != nil {
			return err
		}

		var files []client.UploadFile
		for i, p := range args[1:] {
			f, err := os.Open(p)
			if err != nil {
				return fmt.Errorf("while opening %s: %w", p, err)
			}
			defer f.Close()
			uf := client.UploadFile{Name: filepath.Base(p), Body: f}
			if i < len(uploadNames) {
				uf.Filename = uploadNames[i]
			}
			files = append(files, uf)
		}

		switch {
		case uploadPair:
			if len(files) != 2 {
				return fmt.Errorf("--pair takes exactly a before file and an after file")
			}
			files = client.PairFiles(uploadKey, files[0], files[1])
		case uploadSide != "":
			for i := range files {
				if files[i], err = client.SideFile(uploadSide, uploadKey, files[i]); err != nil {
					return err
				}
			}
		}

		result, err := e.gallery.Upload(cmd.Context(), category, files)
		if err != nil {
			return fmt.Errorf("while uploading to %s: %w", category, err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FILE\tSTATUS\tDETAIL")
		for _, r := range result.Results {
			detail := r.Error
			if r.Image != nil {
				detail = r.Image.PublicID
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Filename, r.Status, detail)
		}
		w.Flush()

		log.Info().
			Int("uploaded", result.Uploaded).
			Int("skipped", result.Skipped).
			Int("failed", result.Failed).
			Msg("Upload finished")
		return nil
	},
}

func init() {
	cmdUpload.Flags().StringSliceVar(&uploadNames, "name", nil, "Stored filenames, matched to files by position.")
	cmdUpload.Flags().BoolVar(&uploadPair, "pair", false, "Upload a before file and an after file under one pairing key.")
	cmdUpload.Flags().StringVar(&uploadSide, "side", "", "Name the files as one side of a pair: avant or apres.")
	cmdUpload.Flags().StringVar(&uploadKey, "key", "", "Pairing key for --pair or --side (generated for --pair when empty).")
}

var cmdDelete = &cobra.Command{
	Use:   "delete <publicId>...",
	Short: "Delete images",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		for _, id := range args {
			if err := e.gallery.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("while deleting %s: %w", id, err)
			}
			log.Info().Str("public_id", id).Msg("Deleted")
		}
		return nil
	},
}

var cmdMove = &cobra.Command{
	Use:   "move <publicId> <category>",
	Short: "Move an image to another category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := parseCategory(args[1])
		if err != nil {
			return err
		}
		e, err := openEnv()
		if err != nil {
			return err
		}
		img, err := e.gallery.Move(cmd.Context(), args[0], target)
		if err != nil {
			return fmt.Errorf("while moving %s: %w", args[0], err)
		}
		log.Info().Str("from", args[0]).Str("to", img.PublicID).Msg("Moved")
		return nil
	},
}

var cmdPairs = &cobra.Command{
	Use:   "pairs",
	Short: "Show the before/after pairs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		pairs, err := e.api.Pairs(cmd.Context())
		if err != nil {
			return fmt.Errorf("while listing pairs: %w", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tBEFORE\tAFTER")
		for _, p := range pairs {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.Key, p.Before, p.After)
		}
		w.Flush()
		return nil
	},
}

var cmdCategories = &cobra.Command{
	Use:   "categories",
	Short: "Show the categories and their capacity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		cats, err := e.api.Categories(cmd.Context())
		if err != nil {
			return fmt.Errorf("while listing categories: %w", err)
		}
		for _, c := range cats {
			fmt.Printf("%s\t%d\n", c.Name, c.Max)
		}
		return nil
	},
}

var cmdReviews = &cobra.Command{
	Use:   "reviews",
	Short: "Show the five-star reviews the site displays",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		summary, err := e.api.Reviews(cmd.Context())
		if err != nil {
			return fmt.Errorf("while fetching reviews: %w", err)
		}
		fmt.Printf("%d of %d reviews are five stars\n", summary.FiveStarCount, summary.TotalReviews)
		for _, r := range summary.Reviews {
			fmt.Printf("\n%s (%s)\n%s\n", r.Author, time.Unix(r.Time, 0).Format("2006-01-02"), r.Text)
		}
		return nil
	},
}

func init() {
	cmdRoot.AddCommand(
		cmdLogin,
		cmdList,
		cmdUp,
		cmdDown,
		cmdMoveTo,
		cmdUpload,
		cmdDelete,
		cmdMove,
		cmdPairs,
		cmdCategories,
		cmdReviews,
	)
}

func main() {
	if err := cmdRoot.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("galleryctl failed")
		os.Exit(1)
	}
}
