package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"quiz-chat-service/internal/domain"

	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout accepted by the seed command.
type SeedFile struct {
	Courses []SeedCourse `yaml:"courses"`
}

type SeedCourse struct {
	ID        string         `yaml:"id"`
	Questions []SeedQuestion `yaml:"questions"`
}

type SeedQuestion struct {
	ID          string            `yaml:"id"`
	Prompt      string            `yaml:"prompt"`
	Options     map[string]string `yaml:"options"`
	Answer      string            `yaml:"answer"`
	Explanation string            `yaml:"explanation"`
}

// LoadSeedFile decodes a seed file from path.
func LoadSeedFile(path string) (SeedFile, error) {
	var f SeedFile
	data, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("decode seed file: %w", err)
	}
	return f, nil
}

// Pools converts the file into question pools, rejecting every question whose answer
// key does not point at a non-blank option and every repeated id within a course.
func (f SeedFile) Pools() (map[string][]domain.Question, error) {
	pools := make(map[string][]domain.Question, len(f.Courses))
	var errs []error
	for _, course := range f.Courses {
		seen := make(map[string]struct{}, len(course.Questions))
		for _, sq := range course.Questions {
			if _, dup := seen[sq.ID]; dup {
				errs = append(errs, fmt.Errorf("course %s question %s: %w", course.ID, sq.ID, domain.ErrDuplicateQuestion))
				continue
			}
			seen[sq.ID] = struct{}{}
			q := domain.Question{
				ID:          sq.ID,
				Prompt:      sq.Prompt,
				Answer:      strings.ToUpper(strings.TrimSpace(sq.Answer)),
				Explanation: sq.Explanation,
			}
			for _, letter := range domain.Letters {
				q.Options = append(q.Options, domain.Option{Letter: letter, Text: optionText(sq.Options, letter)})
			}
			if err := q.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("course %s question %s: %w", course.ID, sq.ID, err))
				continue
			}
			pools[course.ID] = append(pools[course.ID], q)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return pools, nil
}

func optionText(options map[string]string, letter string) string {
	if text, ok := options[letter]; ok {
		return text
	}
	return options[strings.ToLower(letter)]
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	CourseID    string `bun:"course_id,pk"`
	ID          string `bun:"id,pk"`
	Position    int    `bun:"position"`
	Prompt      string `bun:"prompt"`
	OptionA     string `bun:"option_a"`
	OptionB     string `bun:"option_b"`
	OptionC     string `bun:"option_c"`
	OptionD     string `bun:"option_d"`
	Answer      string `bun:"answer"`
	Explanation string `bun:"explanation"`
}

// Seeder upserts question pools through bun.
type Seeder struct {
	db *bun.DB
}

func NewSeeder(db *bun.DB) *Seeder {
	return &Seeder{db: db}
}

// Seed writes all pools in one transaction and returns the number of rows upserted.
func (s *Seeder) Seed(ctx context.Context, pools map[string][]domain.Question) (int, error) {
	var rows []questionRow
	for courseID, questions := range pools {
		for i, q := range questions {
			row := questionRow{
				CourseID:    courseID,
				ID:          q.ID,
				Position:    i,
				Prompt:      q.Prompt,
				Answer:      q.Answer,
				Explanation: q.Explanation,
			}
			slots := []*string{&row.OptionA, &row.OptionB, &row.OptionC, &row.OptionD}
			for j, opt := range q.Options {
				if j < len(slots) {
					*slots[j] = opt.Text
				}
			}
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&rows).
			On("CONFLICT (course_id, id) DO UPDATE").
			Set("position = EXCLUDED.position").
			Set("prompt = EXCLUDED.prompt").
			Set("option_a = EXCLUDED.option_a").
			Set("option_b = EXCLUDED.option_b").
			Set("option_c = EXCLUDED.option_c").
			Set("option_d = EXCLUDED.option_d").
			Set("answer = EXCLUDED.answer").
			Set("explanation = EXCLUDED.explanation").
			Exec(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("upsert questions: %w", err)
	}
	return len(rows), nil
}
