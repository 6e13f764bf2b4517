package main

import (
	"github.com/spf13/cobra"

	"github.com/Jegankumard/OptGiftAI/core"
	"github.com/Jegankumard/OptGiftAI/filter"
	"github.com/Jegankumard/OptGiftAI/pkg/logging"
)

type recommendFlags struct {
	user         string
	query        string
	occasion     string
	relationship string
	likes        string
	comments     string
	interests    []string
	topK         int
	personalize  bool
	expr         string
	exclude      []int64
}

func (f *recommendFlags) context() *core.RecommendContext {
	rctx := &core.RecommendContext{
		UserID:       f.user,
		Query:        f.query,
		Occasion:     f.occasion,
		Relationship: f.relationship,
		Likes:        f.likes,
		Comments:     f.comments,
		Interests:    append([]string(nil), f.interests...),
		TopK:         f.topK,
		Params:       map[string]any{},
	}
	if f.expr != "" {
		rctx.Params[filter.DefaultExprParam] = f.expr
	}
	if len(f.exclude) > 0 {
		rctx.Params[filter.DefaultExcludeParam] = f.exclude
	}
	return rctx
}

func newRecommendCmd(configPath *string) *cobra.Command {
	var f recommendFlags

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend gifts for a query or an occasion",
		Long: `Runs the content-based, collaborative and hybrid strategies concurrently
and prints the three lists as JSON.

With --query the free text is used as is; otherwise the query is built from
--occasion, --relationship, --likes and --comments.`,
		Example: `  optgift recommend --query "leather wallet"
  optgift recommend --occasion wedding --relationship sister --likes photography -k 6
  optgift recommend --user u1 --personalize --occasion birthday`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := logging.ContextWithNewRequestID(cmd.Context())
			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			rctx := f.context()
			if f.personalize && f.user != "" {
				prefs, err := a.prefs.Load(ctx, f.user)
				if err != nil {
					return err
				}
				prefs.Apply(rctx)
			}

			r, err := a.recommender(ctx)
			if err != nil {
				return err
			}
			recs, err := r.Recommend(ctx, rctx)
			if err != nil {
				return err
			}
			logging.Ctx(ctx).Info().
				Str("query", rctx.BuildQuery()).
				Int("content", len(recs.Content)).
				Int("collaborative", len(recs.Collaborative)).
				Int("hybrid", len(recs.Hybrid)).
				Msg("recommendations served")
			return writeJSON(cmd.OutOrStdout(), recs)
		},
	}

	cmd.Flags().StringVarP(&f.user, "user", "u", "", "User id")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "Free-text query")
	cmd.Flags().StringVar(&f.occasion, "occasion", "", "Occasion, e.g. birthday or wedding")
	cmd.Flags().StringVar(&f.relationship, "relationship", "", "Relationship to the recipient")
	cmd.Flags().StringVar(&f.likes, "likes", "", "What the recipient loves")
	cmd.Flags().StringVar(&f.comments, "comments", "", "Additional comments")
	cmd.Flags().StringSliceVar(&f.interests, "interest", nil, "Interest tags appended to the query")
	cmd.Flags().IntVarP(&f.topK, "top-k", "k", 0, "Number of results per strategy (default from config)")
	cmd.Flags().BoolVar(&f.personalize, "personalize", false, "Apply the user's stored preferences")
	cmd.Flags().StringVar(&f.expr, "expr", "", `CEL constraint for a configured filter node, e.g. "item.price <= 100.0"`)
	cmd.Flags().Int64SliceVar(&f.exclude, "exclude", nil, "Product ids to exclude (read by filter.exclude / filter.cart_exclude pipeline nodes)")
	return cmd
}
