package linguist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/fsnotify/fsnotify"
	. "gopkg.in/check.v1"
)

var _ = Suite(&loaderSuite{})

type loaderSuite struct {
	dir    string
	reg    *Registry
	loader *Loader
}

const brokenDE = `<?xml version="1.0" encoding="utf-8"?>
<TS version="2.1" language="de"><context><name>A</name>`

var duplicateDE = tsDocument("de", `<context><name>A</name>
<message><source>Open</source><translation>Öffnen</translation></message>
<message><source>Open</source><translation>Aufmachen</translation></message>
</context>`)

func (s *loaderSuite) SetUpTest(c *C) {
	s.dir = c.MkDir()
	s.reg = newTestRegistry(c)
	s.loader = NewLoader(s.reg, s.dir)
}

func (s *loaderSuite) TestSplitCatalogName(c *C) {
	for _, test := range []struct {
		name, module, locale string
		ok                   bool
	}{
		{"leechcraft_cstp_ru_RU.ts", "leechcraft_cstp", "ru_RU", true},
		{"cstp_ru.ts", "cstp", "ru", true},
		{"app_sr_Latn_RS.ts", "app", "sr_Latn_RS", true},
		{"app_zh_Hant.ts", "app", "zh_Hant", true},
		{"app_es_419.ts", "app", "es_419", true},
		{"app_fil.mo", "app", "fil", true},
		{"ru.ts", "", "", false},
		{"app.ts", "", "", false},
		{"app_RU.ts", "", "", false},
		{"app_Russian.ts", "", "", false},
		{"app_ru_RUS.ts", "", "", false},
	} {
		module, locale, ok := SplitCatalogName(test.name)
		c.Check(ok, Equals, test.ok, Commentf(test.name))
		c.Check(module, Equals, test.module, Commentf(test.name))
		c.Check(locale, Equals, test.locale, Commentf(test.name))
	}
}

func (s *loaderSuite) TestResolvers(c *C) {
	c.Check(DefaultResolver("/usr/share/app", "cstp", "ru-RU"), Equals, "/usr/share/app/cstp_ru_RU.ts")
	c.Check(GettextResolver("/usr/share/locale", "cstp", "ru-RU"), Equals, "/usr/share/locale/ru_RU/LC_MESSAGES/cstp.mo")
}

func (s *loaderSuite) TestLoadDir(c *C) {
	writeFile(c, s.dir, "cstp_ru.ts", addTaskRU)
	writeFile(c, s.dir, "cstp_uk_UA.ts", cstpUK)
	brokenPath := writeFile(c, s.dir, "broken_de.ts", brokenDE)
	dupPath := writeFile(c, s.dir, "dup_de.ts", duplicateDE)
	writeFile(c, s.dir, "notes.txt", "not a catalog")
	writeFile(c, s.dir, "sub/ja/LC_MESSAGES/cstp.mo", string(makeMO(jaEntries)))

	catalogs, err := s.loader.LoadDir(s.dir)
	c.Assert(err, NotNil)
	c.Check(errors.Is(err, ErrMalformedDocument), Equals, true)
	c.Check(errors.Is(err, ErrDuplicateKey), Equals, true)
	c.Check(err, ErrorMatches, "(?s).*"+regexp.QuoteMeta(brokenPath)+`: (line \d+: )?malformed document: .*`)
	c.Check(err, ErrorMatches, "(?s).*"+regexp.QuoteMeta(dupPath)+`: line \d+: duplicate key: "A::Open".*`)

	var locales []string
	for _, cat := range catalogs {
		locales = append(locales, cat.Locale())
	}
	c.Check(locales, DeepEquals, []string{"ru", "uk-UA", "ja"})

	c.Check(s.reg.Modules(), DeepEquals, []string{"cstp"})
	c.Check(s.reg.Locales("cstp"), DeepEquals, []string{"ja", "ru", "uk-UA"})
}

func (s *loaderSuite) TestLoadDirLastOneWins(c *C) {
	writeFile(c, s.dir, "cstp_ru.ts", addTaskRU)
	writeFile(c, s.dir, "cstp_ru_RU.ts", tsDocument("ru", `<context><name>CSTP</name>
<message><source>Start</source><translation>Пуск</translation></message>
</context>`))
	catalogs, err := s.loader.LoadDir(s.dir)
	c.Assert(err, IsNil)
	c.Check(catalogs, HasLen, 2)
	s.reg.SetLocaleChain("ru")
	c.Check(s.reg.Translate("cstp", "CSTP", "Start", ""), Equals, "Пуск")
}

func (s *loaderSuite) TestLoadDirMissing(c *C) {
	_, err := s.loader.LoadDir(filepath.Join(s.dir, "missing"))
	c.Check(err, ErrorMatches, "cannot scan catalog directory: .*")
}

func (s *loaderSuite) TestLoad(c *C) {
	writeFile(c, s.dir, "cstp_ru.ts", addTaskRU)
	writeFile(c, s.dir, "cstp_uk_UA.ts", cstpUK)

	err := s.loader.Load("cstp", "ru", "uk-UA", "de")
	c.Assert(err, IsNil)
	c.Check(s.reg.Locales("cstp"), DeepEquals, []string{"ru", "uk-UA"})

	writeFile(c, s.dir, "cstp_de.ts", brokenDE)
	err = s.loader.Load("cstp", "de")
	c.Check(errors.Is(err, ErrMalformedDocument), Equals, true)
	c.Check(s.reg.Locales("cstp"), DeepEquals, []string{"ru", "uk-UA"})
}

func (s *loaderSuite) TestLoadGettextLayout(c *C) {
	writeFile(c, s.dir, "ja/LC_MESSAGES/cstp.mo", string(makeMO(jaEntries)))
	// No Language header: the locale comes from the directory.
	writeFile(c, s.dir, "de_DE/LC_MESSAGES/cstp.mo", string(makeMO([][2]string{{"Open", "Öffnen"}})))

	s.loader.Resolver = GettextResolver
	c.Assert(s.loader.Load("cstp", "ja", "de-DE"), IsNil)
	c.Check(s.reg.Locales("cstp"), DeepEquals, []string{"de-DE", "ja"})

	s.reg.SetLocaleChain("de_DE")
	c.Check(s.reg.Translate("cstp", "", "Open", ""), Equals, "Öffnen")
}

func (s *loaderSuite) TestLoadFileRejected(c *C) {
	path := writeFile(c, s.dir, "notes.txt", "hello")
	_, err := s.loader.LoadFile(path)
	c.Check(errors.Is(err, ErrUnsupportedFormat), Equals, true)

	path = writeFile(c, s.dir, "dup_de.ts", duplicateDE)
	cat, err := s.loader.LoadFile(path)
	c.Check(cat, IsNil)
	c.Check(errors.Is(err, ErrDuplicateKey), Equals, true)
	c.Check(s.reg.Catalogs(), HasLen, 0)

	_, err = s.loader.LoadFile(filepath.Join(s.dir, "missing_de.ts"))
	c.Check(errors.Is(err, os.ErrNotExist), Equals, true)
}

func (s *loaderSuite) TestHandleEvent(c *C) {
	s.reg.SetLocaleChain("uk_UA")
	path := writeFile(c, s.dir, "cstp_uk_UA.ts", cstpUK)
	s.loader.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Create})
	c.Check(s.reg.Translate("cstp", "CSTP", "Pause", ""), Equals, "Пауза")

	// A broken rewrite keeps the previous catalog.
	writeFile(c, s.dir, "cstp_uk_UA.ts", brokenDE)
	s.loader.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})
	c.Check(s.reg.Translate("cstp", "CSTP", "Pause", ""), Equals, "Пауза")

	writeFile(c, s.dir, "cstp_uk_UA.ts", tsDocument("uk_UA", `<context><name>CSTP</name>
<message><source>Pause</source><translation>Призупинити</translation></message>
</context>`))
	s.loader.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})
	c.Check(s.reg.Translate("cstp", "CSTP", "Pause", ""), Equals, "Призупинити")

	// Other files are ignored.
	other := writeFile(c, s.dir, "notes.txt", "x")
	s.loader.handleEvent(fsnotify.Event{Name: other, Op: fsnotify.Write})
	c.Check(s.reg.Catalogs(), HasLen, 1)

	c.Assert(os.Remove(path), IsNil)
	s.loader.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Remove})
	c.Check(s.reg.Catalogs(), HasLen, 0)
	c.Check(s.reg.Translate("cstp", "CSTP", "Pause", ""), Equals, "Pause")

	// Removing an unknown file is harmless.
	s.loader.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Rename})
}

func pauseUK(translation string) string {
	return tsDocument("uk_UA", `<context><name>CSTP</name>
<message><source>Pause</source><translation>`+translation+`</translation></message>
</context>`)
}

func (s *loaderSuite) TestRemoveShadowedCatalog(c *C) {
	s.reg.SetLocaleChain("uk_UA")
	shadowed := writeFile(c, s.dir, "a/cstp_uk_UA.ts", pauseUK("Пауза"))
	winner := writeFile(c, s.dir, "b/cstp_uk_UA.ts", pauseUK("Призупинити"))
	_, err := s.loader.LoadDir(s.dir)
	c.Assert(err, IsNil)
	c.Check(s.reg.Translate("cstp", "CSTP", "Pause", ""), Equals, "Призупинити")

	c.Assert(os.Remove(shadowed), IsNil)
	s.loader.handleEvent(fsnotify.Event{Name: shadowed, Op: fsnotify.Remove})
	c.Check(s.reg.Locales("cstp"), DeepEquals, []string{"uk-UA"})
	c.Check(s.reg.Translate("cstp", "CSTP", "Pause", ""), Equals, "Призупинити")

	c.Assert(os.Remove(winner), IsNil)
	s.loader.handleEvent(fsnotify.Event{Name: winner, Op: fsnotify.Remove})
	c.Check(s.reg.Catalogs(), HasLen, 0)
}

func (s *loaderSuite) TestRemoveWinningCatalog(c *C) {
	s.reg.SetLocaleChain("uk_UA")
	writeFile(c, s.dir, "a/cstp_uk_UA.ts", pauseUK("Пауза"))
	winner := writeFile(c, s.dir, "b/cstp_uk_UA.ts", pauseUK("Призупинити"))
	_, err := s.loader.LoadDir(s.dir)
	c.Assert(err, IsNil)

	// The remaining file takes over.
	c.Assert(os.Remove(winner), IsNil)
	s.loader.handleEvent(fsnotify.Event{Name: winner, Op: fsnotify.Remove})
	c.Check(s.reg.Locales("cstp"), DeepEquals, []string{"uk-UA"})
	c.Check(s.reg.Translate("cstp", "CSTP", "Pause", ""), Equals, "Пауза")
}

func (s *loaderSuite) TestRewriteWithOtherLanguage(c *C) {
	path := writeFile(c, s.dir, "cstp_uk_UA.ts", cstpUK)
	s.loader.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Create})
	c.Check(s.reg.Locales("cstp"), DeepEquals, []string{"uk-UA"})

	writeFile(c, s.dir, "cstp_uk_UA.ts", tsDocument("be", `<context><name>CSTP</name>
<message><source>Pause</source><translation>Паўза</translation></message>
</context>`))
	s.loader.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})
	c.Check(s.reg.Locales("cstp"), DeepEquals, []string{"be"})

	c.Assert(os.Remove(path), IsNil)
	s.loader.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Remove})
	c.Check(s.reg.Catalogs(), HasLen, 0)
}

func (s *loaderSuite) TestLocaleFromFileName(c *C) {
	path := writeFile(c, s.dir, "cstp_ru_RU.ts", `<?xml version="1.0" encoding="utf-8"?>
<TS version="1.1"><context><name>CSTP</name>
<message><source>Start</source><translation>Старт</translation></message>
</context></TS>`)
	cat, err := s.loader.LoadFile(path)
	c.Assert(err, IsNil)
	c.Check(cat.Locale(), Equals, "ru-RU")
	c.Check(s.reg.Locales("cstp"), DeepEquals, []string{"ru-RU"})

	// Without a locale in the name the language stays required.
	path = writeFile(c, s.dir, "cstp.ts", `<TS version="1.1"></TS>`)
	_, err = s.loader.LoadFile(path)
	c.Check(errors.Is(err, ErrMalformedDocument), Equals, true)
}

func (s *loaderSuite) TestWatch(c *C) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- s.loader.Watch(ctx, s.dir)
	}()

	s.reg.SetLocaleChain("uk_UA")
	deadline := time.Now().Add(10 * time.Second)
	for s.reg.Translate("cstp", "CSTP", "Pause", "") != "Пауза" {
		if time.Now().After(deadline) {
			c.Fatal("catalog was not loaded by the watcher")
		}
		// Rewrite until the watcher is set up and sees the change.
		writeFile(c, s.dir, "cstp_uk_UA.ts", cstpUK)
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		c.Check(err, IsNil)
	case <-time.After(10 * time.Second):
		c.Fatal("watcher did not stop")
	}
}

func (s *loaderSuite) TestWatchMissingDir(c *C) {
	err := s.loader.Watch(context.Background(), filepath.Join(s.dir, "missing"))
	c.Check(err, ErrorMatches, "cannot watch .*")
}
