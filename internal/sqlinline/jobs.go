// Package sqlinline holds the raw SQL executed by the repositories. The jobs
// table stores the full aggregate as a JSONB state column beside the columns
// the API queries on, so the pipeline never needs a schema migration when an
// entity grows a field.
package sqlinline

const QCreateJobsTable = `--sql 5f0c1d2a-9b6e-4f61-bb3f-2f6c4a7d9e01
create table if not exists jobs (
    id uuid primary key,
    user_id text not null,
    mode text not null,
    status text not null,
    state jsonb not null,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
create index if not exists idx_jobs_user_created on jobs (user_id, created_at desc);
create index if not exists idx_jobs_status_created on jobs (status, created_at asc);
`

const QInsertJob = `--sql 8a4b6c2d-1e3f-4a5b-9c7d-0e1f2a3b4c5d
insert into jobs (id, user_id, mode, status, state, created_at, updated_at)
values ($1, $2, $3, $4, $5, now(), now());
`

const QGetJob = `--sql 3c5d7e9f-2b4a-4c6d-8e0f-1a2b3c4d5e6f
select state from jobs where id = $1;
`

const QUpdateJob = `--sql 7e9f1a3b-4c5d-4e6f-a0b1-2c3d4e5f6a7b
update jobs
set status = $2, state = $3, updated_at = now()
where id = $1;
`

const QDeleteJob = `--sql 1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5e
delete from jobs where id = $1;
`

const QListJobsByUser = `--sql 9b8a7c6d-5e4f-4d3c-b2a1-0f9e8d7c6b5a
select state from jobs
where user_id = $1
order by created_at desc
limit $2;
`

const QClaimQueuedJob = `--sql 4d6e8f0a-1b2c-4d3e-9f4a-5b6c7d8e9f0b
with next_job as (
    select id
    from jobs
    where status = 'queued'
    order by created_at asc
    for update skip locked
    limit 1
),
updated as (
    update jobs
    set status = 'running', updated_at = now()
    where id in (select id from next_job)
    returning state
)
select state from updated;
`
