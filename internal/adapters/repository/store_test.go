package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/okian/liftguard/internal/domain/model"
	"github.com/okian/liftguard/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sampleInput(pain int, loc model.PainLocation) model.AssessmentInput {
	return model.AssessmentInput{
		TrainingDaysPerWeek: 4,
		RestDaysPerWeek:     3,
		SessionMinutes:      60,
		WeeklySets:          70,
		RPE:                 7,
		SleepHours:          7.5,
		PainScore:           pain,
		PainLocation:        loc,
		ExperienceLevel:     model.Intermediate,
	}
}

func collect(seq func(func(model.AssessmentRecord, error) bool)) ([]model.AssessmentRecord, error) {
	var out []model.AssessmentRecord
	for rec, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// storeContract exercises the behaviour every backend must share.
func storeContract(t *testing.T, open func(clock func() time.Time) AssessmentStore) {
	engine := scoring.NewEngine()
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		clock := newFakeClock()
		store := open(clock.Now)
		Reset(func() { So(store.Close(), ShouldBeNil) })

		Convey("When nothing has been appended", func() {
			n, err := store.Count(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)

			recent, err := store.ListRecent(ctx, 10)
			So(err, ShouldBeNil)
			So(recent, ShouldBeEmpty)

			scanned, err := collect(store.Scan(ctx, time.Time{}, time.Time{}))
			So(err, ShouldBeNil)
			So(scanned, ShouldBeEmpty)
		})

		Convey("When appending N assessments", func() {
			var appended []model.AssessmentRecord
			for i := 0; i < 5; i++ {
				in := sampleInput(i*2, model.PainKnee)
				rec, err := store.Append(ctx, in, engine.Score(in))
				So(err, ShouldBeNil)
				appended = append(appended, rec)
				clock.Advance(time.Minute)
			}

			Convey("Then ids increase in append order and timestamps are UTC", func() {
				for i := 1; i < len(appended); i++ {
					So(appended[i].ID, ShouldEqual, appended[i-1].ID+1)
				}
				So(appended[0].CreatedAt.Location(), ShouldEqual, time.UTC)
			})

			Convey("Then recent returns them newest first with matching fields", func() {
				recent, err := store.ListRecent(ctx, 5)
				So(err, ShouldBeNil)
				So(len(recent), ShouldEqual, 5)
				for i, rec := range recent {
					want := appended[len(appended)-1-i]
					So(rec.ID, ShouldEqual, want.ID)
					So(rec.CreatedAt.Equal(want.CreatedAt), ShouldBeTrue)
					So(rec.Input, ShouldResemble, want.Input)
					So(rec.Result, ShouldResemble, want.Result)
				}
			})

			Convey("Then the limit bounds the recent list", func() {
				recent, err := store.ListRecent(ctx, 2)
				So(err, ShouldBeNil)
				So(len(recent), ShouldEqual, 2)
				So(recent[0].ID, ShouldEqual, appended[4].ID)
			})

			Convey("Then count matches", func() {
				n, err := store.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 5)
			})
		})

		Convey("When records span several days", func() {
			var ids []int64
			for day := 0; day < 3; day++ {
				in := sampleInput(3, model.PainShoulder)
				rec, err := store.Append(ctx, in, engine.Score(in))
				So(err, ShouldBeNil)
				ids = append(ids, rec.ID)
				clock.Advance(24 * time.Hour)
			}
			day2 := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)

			Convey("Then an open scan yields every record ascending", func() {
				all, err := collect(store.Scan(ctx, time.Time{}, time.Time{}))
				So(err, ShouldBeNil)
				So(len(all), ShouldEqual, 3)
				So(all[0].ID, ShouldEqual, ids[0])
				So(all[2].ID, ShouldEqual, ids[2])
			})

			Convey("Then bounds are inclusive below and exclusive above", func() {
				after, err := collect(store.Scan(ctx, day2, time.Time{}))
				So(err, ShouldBeNil)
				So(len(after), ShouldEqual, 2)
				So(after[0].ID, ShouldEqual, ids[1])

				before, err := collect(store.Scan(ctx, time.Time{}, day2))
				So(err, ShouldBeNil)
				So(len(before), ShouldEqual, 1)
				So(before[0].ID, ShouldEqual, ids[0])
			})

			Convey("Then the sequence can be ranged again and stopped early", func() {
				seq := store.Scan(ctx, time.Time{}, time.Time{})
				first, err := collect(seq)
				So(err, ShouldBeNil)
				second, err := collect(seq)
				So(err, ShouldBeNil)
				So(len(second), ShouldEqual, len(first))

				seen := 0
				for _, err := range seq {
					So(err, ShouldBeNil)
					seen++
					break
				}
				So(seen, ShouldEqual, 1)

				// The store stays usable after an early break.
				in := sampleInput(0, model.PainNone)
				_, err = store.Append(ctx, in, engine.Score(in))
				So(err, ShouldBeNil)
			})
		})

		Convey("When many goroutines append at once", func() {
			const workers = 32
			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				ids  []int64
				errs []error
			)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					in := sampleInput(i%11, model.PainWrist)
					rec, err := store.Append(ctx, in, engine.Score(in))
					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						errs = append(errs, err)
						return
					}
					ids = append(ids, rec.ID)
				}(i)
			}
			wg.Wait()

			Convey("Then every append succeeds with distinct contiguous ids", func() {
				So(errs, ShouldBeEmpty)
				So(len(ids), ShouldEqual, workers)
				sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
				for i := 1; i < len(ids); i++ {
					So(ids[i], ShouldEqual, ids[i-1]+1)
				}
				n, err := store.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, workers)
			})
		})

		Convey("When listing with a non-positive limit", func() {
			_, err := store.ListRecent(ctx, 0)
			So(errors.Is(err, ErrInvalidLimit), ShouldBeTrue)
		})

		Convey("When incrementing usage counters", func() {
			usage, err := store.LoadUsage(ctx)
			So(err, ShouldBeNil)
			So(usage[model.ModeModel], ShouldEqual, 0)

			So(store.IncrementUsage(ctx, model.ModeModel), ShouldBeNil)
			So(store.IncrementUsage(ctx, model.ModeModel), ShouldBeNil)
			So(store.IncrementUsage(ctx, model.ModeFallback), ShouldBeNil)

			Convey("Then the persisted counts reflect every increment", func() {
				usage, err := store.LoadUsage(ctx)
				So(err, ShouldBeNil)
				So(usage[model.ModeModel], ShouldEqual, 2)
				So(usage[model.ModeFallback], ShouldEqual, 1)
			})
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Given store configurations", t, func() {
		ctx := context.Background()

		Convey("When the driver is unknown", func() {
			_, err := Open(ctx, Config{Driver: "mongo"})
			So(errors.Is(err, ErrUnknownDriver), ShouldBeTrue)
		})

		Convey("When the driver is memory", func() {
			store, err := Open(ctx, Config{Driver: DriverMemory})
			So(err, ShouldBeNil)
			So(store, ShouldHaveSameTypeAs, &MemoryStore{})
			So(store.Close(), ShouldBeNil)
		})

		Convey("When the driver is sqlite", func() {
			store, err := Open(ctx, Config{Driver: DriverSQLite, SQLitePath: t.TempDir() + "/open.db"})
			So(err, ShouldBeNil)
			So(store, ShouldHaveSameTypeAs, &SQLiteStore{})
			So(store.Close(), ShouldBeNil)
		})
	})
}

func TestPersistenceError(t *testing.T) {
	Convey("Given a wrapped driver failure", t, func() {
		cause := errors.New("disk full")
		err := persistErr("append", cause)

		Convey("Then it matches both the kind and the cause", func() {
			So(errors.Is(err, ErrPersistence), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "append")
			So(persistErr("noop", nil), ShouldBeNil)
		})
	})
}
