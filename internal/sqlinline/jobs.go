package sqlinline

const QInsertGenerationJob = `--sql 3c1f7a52-9d4e-4b7a-8f61-2d5e0c9b7a14
insert into generation_jobs (id, session_id, kind, status, aspect_ratio, backend, poll_attempts, started_at)
values ($1::uuid, $2::text, $3::text, $4::text, nullif($5::text, ''), $6::text, 0, $7::timestamptz);
`

const QFinishGenerationJob = `--sql 7e2a9c40-5b13-4f8e-a6d2-91c4b0e3f857
update generation_jobs
set status = $2::text,
    poll_attempts = $3::int,
    error_detail = nullif($4::text, ''),
    finished_at = $5::timestamptz
where id = $1::uuid;
`

const QSelectRecentGenerationJobs = `--sql a94d0e61-2c7b-48f3-b1e5-6f08d2c4a9b3
select id::text, session_id, kind, status, coalesce(aspect_ratio, ''), backend, poll_attempts,
       coalesce(error_detail, ''), started_at, finished_at
from generation_jobs
order by started_at desc
limit $1::int;
`
