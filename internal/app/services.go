package app

import (
	"fmt"

	"gorm.io/gorm"

	dataagg "github.com/monaam/reviewflow-sub000/internal/data/aggregates"
	"github.com/monaam/reviewflow-sub000/internal/modules/review/notify"
	"github.com/monaam/reviewflow-sub000/internal/modules/review/policy"
	"github.com/monaam/reviewflow-sub000/internal/observability"
	"github.com/monaam/reviewflow-sub000/internal/platform/logger"
	"github.com/monaam/reviewflow-sub000/internal/services"
)

type Services struct {
	Policy   *policy.Policy
	Notifier *notify.Notifier

	Assets   services.AssetService
	Comments services.CommentService
	Requests services.RequestService
	Timeline services.TimelineService
	Projects services.ProjectService
}

func loadPolicy(log *logger.Logger, path string) (*policy.Policy, error) {
	if path == "" {
		return policy.Default(), nil
	}
	pol, err := policy.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load role policy %q: %w", path, err)
	}
	log.Info("Loaded role policy", "path", path)
	return pol, nil
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, metrics *observability.Metrics, reposet Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	pol, err := loadPolicy(log, cfg.PolicyFile)
	if err != nil {
		return Services{}, err
	}

	notifier := notify.NewNotifier(log, clients.Dispatcher,
		notify.WithObserver(metrics),
		notify.WithTimeout(cfg.NotifyTimeout),
	)

	base := dataagg.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: dataagg.NewObservabilityHooks(metrics),
	}
	assetAgg := dataagg.NewAssetAggregate(dataagg.AssetAggregateDeps{
		Base:      base,
		Policy:    pol,
		Assets:    reposet.Asset,
		Versions:  reposet.AssetVersion,
		Comments:  reposet.Comment,
		Approvals: reposet.ApprovalLog,
		Requests:  reposet.Request,
	})
	commentAgg := dataagg.NewCommentAggregate(dataagg.CommentAggregateDeps{
		Base:     base,
		Policy:   pol,
		Assets:   reposet.Asset,
		Comments: reposet.Comment,
		Members:  reposet.ProjectMember,
	})
	requestAgg := dataagg.NewRequestAggregate(dataagg.RequestAggregateDeps{
		Base:     base,
		Policy:   pol,
		Requests: reposet.Request,
	})

	return Services{
		Policy:   pol,
		Notifier: notifier,
		Assets: services.NewAssetService(services.AssetServiceDeps{
			Log:       log,
			Policy:    pol,
			Aggregate: assetAgg,
			Assets:    reposet.Asset,
			Versions:  reposet.AssetVersion,
			Requests:  reposet.Request,
			Members:   reposet.ProjectMember,
			Store:     clients.Store,
			Notifier:  notifier,
			Metrics:   metrics,
		}),
		Comments: services.NewCommentService(log, pol, commentAgg, clients.Staged, clients.Store, notifier),
		Requests: services.NewRequestService(log, pol, requestAgg, reposet.Request, notifier),
		Timeline: services.NewTimelineService(log, pol, reposet.Asset, reposet.AssetVersion, reposet.Comment, reposet.ApprovalLog),
		Projects: services.NewProjectService(log, pol, reposet.ProjectMember),
	}, nil
}
