package service

import "context"

type testTxRepos struct {
	updates StatusUpdateRepositoryInterface
	jobs    IndexJobRepositoryInterface
}

func (t *testTxRepos) StatusUpdates() StatusUpdateRepositoryInterface {
	return t.updates
}

func (t *testTxRepos) IndexJobs() IndexJobRepositoryInterface {
	return t.jobs
}

type testTxRunner struct {
	repos  TxRepositories
	err    error
	called bool
}

func (t *testTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	t.called = true
	if t.err != nil {
		return t.err
	}
	return fn(t.repos)
}
