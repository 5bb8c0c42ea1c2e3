package publish

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ydc/docpub/api"
	"github.com/ydc/docpub/hash"
	"github.com/ydc/docpub/vault"
)

type fakeVault struct {
	files map[string][]byte
}

func (v *fakeVault) Name() string { return "main" }

func (v *fakeVault) ReadText(f vault.File) (string, error) {
	data, err := v.ReadBinary(f)
	return string(data), err
}

func (v *fakeVault) ReadBinary(f vault.File) ([]byte, error) {
	data, ok := v.files[f.Path]
	if !ok {
		return nil, fmt.Errorf("Failed to read %s", f.Path)
	}
	return data, nil
}

func (v *fakeVault) ResolveLink(name, fromPath string) (vault.File, bool, error) {
	if _, ok := v.files[name]; ok {
		return vault.NewFile(name), true, nil
	}
	return vault.File{}, false, nil
}

func (v *fakeVault) Files() ([]vault.File, error) { return nil, nil }

type fakeService struct {
	conf       *api.AttachConfig
	confErr    error
	published  []api.PublishInput
	publishErr map[string]error
	checks     int
}

func (s *fakeService) AttachConfig(ctx context.Context) (*api.AttachConfig, error) {
	if s.confErr != nil {
		return nil, s.confErr
	}
	if s.conf == nil {
		return &api.AttachConfig{MaxSize: 1 << 20, Exts: "png,jpg"}, nil
	}
	return s.conf, nil
}

func (s *fakeService) CheckAttachment(ctx context.Context, input api.CheckAttachmentInput) (*api.CheckAttachmentResult, error) {
	s.checks++
	return &api.CheckAttachmentResult{Has: false}, nil
}

func (s *fakeService) PublishDocument(ctx context.Context, input api.PublishInput) error {
	s.published = append(s.published, input)
	if err, ok := s.publishErr[input.FileName]; ok {
		return err
	}
	return nil
}

// recorder captures notifications by level
type recorder struct {
	notices  []string
	warnings []string
	errors   []string
}

func (r *recorder) Notify(msg string) { r.notices = append(r.notices, msg) }
func (r *recorder) Warn(msg string)   { r.warnings = append(r.warnings, msg) }
func (r *recorder) Error(msg string)  { r.errors = append(r.errors, msg) }

func TestPublishOne(t *testing.T) {
	v := &fakeVault{files: map[string][]byte{
		"notes/a.md": []byte("# Hello\n![[img.png]]"),
		"img.png":    []byte("png-bytes"),
	}}
	svc := &fakeService{}
	rec := &recorder{}

	p := New(v, svc, rec, 0)
	require.Nil(t, p.PublishOne(context.Background(), vault.NewFile("notes/a.md")))

	require.Len(t, svc.published, 1)
	input := svc.published[0]
	require.Equal(t, "notes/a.md", input.FileName)
	require.Equal(t, "main", input.Vault)
	require.False(t, input.Public)

	// The embed was resolved into a hash placeholder and its bytes ride
	// along with the publish
	sum := hash.MD5().Bytes([]byte("png-bytes"))
	require.Equal(t, fmt.Sprintf("# Hello\n![img.png](%s)", sum), input.Content)
	require.Len(t, input.Attachments, 1)
	require.Equal(t, 1, svc.checks)

	require.Len(t, rec.notices, 1)
	assert.Contains(t, rec.notices[0], "notes/a.md")
}

func TestPublishOnePublicFrontMatter(t *testing.T) {
	v := &fakeVault{files: map[string][]byte{
		"a.md": []byte("---\npublic: true\n---\n# body"),
	}}
	svc := &fakeService{}

	p := New(v, svc, &recorder{}, 0)
	require.Nil(t, p.PublishOne(context.Background(), vault.NewFile("a.md")))

	require.Len(t, svc.published, 1)
	assert.True(t, svc.published[0].Public)
}

func TestPublishOneReadFailure(t *testing.T) {
	v := &fakeVault{files: map[string][]byte{}}
	svc := &fakeService{}
	rec := &recorder{}

	p := New(v, svc, rec, 0)
	err := p.PublishOne(context.Background(), vault.NewFile("missing.md"))
	require.NotNil(t, err)
	require.Empty(t, svc.published)
	require.Len(t, rec.errors, 1)
}

func TestPublishOneAttachmentFailureAborts(t *testing.T) {
	v := &fakeVault{files: map[string][]byte{
		"a.md": []byte("![[absent.png]]"),
	}}
	svc := &fakeService{}
	rec := &recorder{}

	p := New(v, svc, rec, 0)
	err := p.PublishOne(context.Background(), vault.NewFile("a.md"))
	require.NotNil(t, err)
	assert.True(t, api.IsAttachment(err))
	require.Empty(t, svc.published)

	// Exactly one notification for the aborted document
	require.Len(t, rec.errors, 1)
	require.Empty(t, rec.notices)
}

func TestPublishOneConfigFailurePublishesRaw(t *testing.T) {
	v := &fakeVault{files: map[string][]byte{
		"a.md": []byte("# Hello\n![[img.png]]"),
	}}
	svc := &fakeService{confErr: api.Networkf("config unavailable")}
	rec := &recorder{}

	p := New(v, svc, rec, 0)
	require.Nil(t, p.PublishOne(context.Background(), vault.NewFile("a.md")))

	// Without a policy the references stay as written and no dedup
	// probes run
	require.Len(t, svc.published, 1)
	require.Equal(t, "# Hello\n![[img.png]]", svc.published[0].Content)
	require.Equal(t, 0, svc.checks)
	require.Len(t, rec.warnings, 1)
	assert.Contains(t, rec.warnings[0], "Attachment uploads disabled")
}

func TestPublishBatchSkipsUnpublishable(t *testing.T) {
	v := &fakeVault{files: map[string][]byte{
		"a.md": []byte("# a"),
		"b.md": []byte("---\npublish: false\n---\n# b"),
		"c.md": []byte("# c"),
	}}
	svc := &fakeService{}
	rec := &recorder{}

	p := New(v, svc, rec, 0)
	err := p.PublishBatch(context.Background(), []vault.File{
		vault.NewFile("a.md"), vault.NewFile("b.md"), vault.NewFile("c.md"),
	})
	require.Nil(t, err)

	var names []string
	for _, input := range svc.published {
		names = append(names, input.FileName)
	}
	require.Equal(t, []string{"a.md", "c.md"}, names)

	var skipped bool
	for _, msg := range rec.notices {
		if strings.Contains(msg, "b.md") && strings.Contains(msg, "skipped") {
			skipped = true
		}
	}
	assert.True(t, skipped)
}

func TestPublishBatchContinuesAfterFailure(t *testing.T) {
	v := &fakeVault{files: map[string][]byte{
		"a.md": []byte("# a"),
		"b.md": []byte("# b"),
		"c.md": []byte("# c"),
	}}
	svc := &fakeService{publishErr: map[string]error{
		"b.md": api.Businessf(3, "rejected"),
	}}

	p := New(v, svc, &recorder{}, 0)
	err := p.PublishBatch(context.Background(), []vault.File{
		vault.NewFile("a.md"), vault.NewFile("b.md"), vault.NewFile("c.md"),
	})

	// All three were attempted; the one failure is reported
	require.Len(t, svc.published, 3)
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestPublishBatchHonorsCancellation(t *testing.T) {
	v := &fakeVault{files: map[string][]byte{"a.md": []byte("# a")}}
	svc := &fakeService{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(v, svc, &recorder{}, 0)
	err := p.PublishBatch(ctx, []vault.File{vault.NewFile("a.md")})
	require.Equal(t, context.Canceled, err)
	require.Empty(t, svc.published)
}
